package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginmiddleware "github.com/oapi-codegen/gin-middleware"

	"styleSphere/api"
	"styleSphere/clients/amazon"
	"styleSphere/clients/blob"
	"styleSphere/clients/cloudinary"
	"styleSphere/clients/gcp"
	"styleSphere/clients/mongodb"
	"styleSphere/clients/razorpay"
	"styleSphere/clients/storage"
	"styleSphere/docstore"
	"styleSphere/envvars"
	"styleSphere/models"
	"styleSphere/services/checkout"
	"styleSphere/services/closet"
	"styleSphere/services/identity"
	"styleSphere/services/marketplace"
	"styleSphere/services/mirror"
	"styleSphere/services/outfit"
	"styleSphere/services/recommend"
	"styleSphere/services/session"
	"styleSphere/services/user"
	"styleSphere/services/view"
	"styleSphere/validator"
)

func main() {
	env := envvars.GetEvn()
	setLogger(env)
	ctx := context.Background()

	local, err := storage.NewFileStore(env.LocalStoreDir)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}

	var (
		store    docstore.Store
		provider identity.Provider
		uploader blob.Uploader
	)
	if envvars.RemoteConfigured(env) {
		store, err = newDocStore(ctx, env)
		if err != nil {
			log.Fatalf("failed to create document store: %v", err)
		}
		provider, err = newIdentity(ctx, env)
		if err != nil {
			log.Fatalf("failed to create identity provider: %v", err)
		}
		uploader, err = newUploader(ctx, env)
		if err != nil {
			log.Fatalf("failed to create blob uploader: %v", err)
		}
	} else {
		slog.Warn("remote services not configured, running in local mode")
	}

	var gateway checkout.Gateway
	if envvars.PaymentsConfigured(env) {
		gateway = razorpay.NewGateway(razorpay.NewClient(), env.RazorpayKeyID, env.RazorpayKeySecret)
	}

	server := NewServer(store, provider, uploader, local, gateway)
	router, err := newRouter(server)
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}
	server.Session.Start(ctx, "")

	s := &http.Server{
		Handler: router,
		Addr:    "0.0.0.0:" + env.Port,
	}
	slog.Info("Starting HTTP server", "port", env.Port)
	log.Fatal(s.ListenAndServe())
}

func setLogger(env envvars.Env) {
	if envvars.IsProd(env) {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// NewServer builds the services and connects the session, the mirror and
// the recommendation engine. A nil store or provider leaves the app in
// local mode.
func NewServer(store docstore.Store, provider identity.Provider, uploader blob.Uploader, local storage.Store, gateway checkout.Gateway) Server {
	sess := session.NewService(provider)
	m := mirror.NewService(store, local)
	users := user.NewUserService(store, uploader)
	screens := view.NewStore()
	var engine *recommend.Engine
	if store != nil {
		engine = recommend.NewEngine(store, nil)
	}

	sess.OnChange(func(s models.Session) {
		if !s.IsReady {
			return
		}
		ctx := context.Background()
		if err := m.Bind(ctx, s.UserID); err != nil {
			slog.With("error", err.Error()).Error("failed to bind mirror", "userId", s.UserID)
		}
		if store == nil || !s.Authenticated() {
			return
		}
		if _, err := users.EnsureUser(ctx, s); err != nil {
			slog.With("error", err.Error()).Error("failed to ensure user profile", "userId", s.UserID)
		}
	})
	m.OnRecommendations(func(_ string, set *models.RecommendedOutfitSet) {
		if set == nil {
			screens.Dispatch(view.ShowRecommendations("", 0))
			return
		}
		screens.Dispatch(view.ShowRecommendations(set.Fingerprint, len(set.Combos)))
	})
	if engine != nil {
		m.OnCloset(func(userID string, items []models.ClosetItem) {
			if _, err := engine.Trigger(context.Background(), userID, items); err != nil {
				slog.With("error", err.Error()).Error("failed to write recommendations", "userId", userID)
			}
		})
		m.OnRecommendations(engine.Observe)
	}

	return Server{
		Session:     sess,
		Mirror:      m,
		Closet:      closet.NewService(sess, store, uploader, local, m),
		Marketplace: marketplace.NewService(sess, store, uploader),
		Outfits:     outfit.NewService(sess, store),
		Users:       users,
		Checkout:    checkout.NewService(gateway, local),
		View:        screens,
	}
}

func newRouter(server Server) (*gin.Engine, error) {
	swagger, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load swagger spec: %w", err)
	}
	// Clear out the servers array in the swagger spec, that skips validating
	// that server names match. We don't know how this thing will be run.
	swagger.Servers = nil

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/openapi", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/x-yaml", api.Spec())
	})

	r.Use(ginmiddleware.OapiRequestValidatorWithOptions(swagger, &ginmiddleware.Options{
		Options: openapi3filter.Options{
			ExcludeRequestBody: true,
			AuthenticationFunc: validator.Authenticate,
		},
		ErrorHandler: func(c *gin.Context, message string, statusCode int) {
			c.AbortWithStatusJSON(statusCode, api.Error{Code: "invalid_request", Message: message})
		},
	}))
	api.RegisterHandlers(r, server)
	return r, nil
}

func newDocStore(ctx context.Context, env envvars.Env) (docstore.Store, error) {
	switch env.DocStore {
	case envvars.Firestore:
		client, err := gcp.CreateFirestore(ctx, env.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		return gcp.NewFirestoreStore(client), nil
	case envvars.Mongo:
		client, err := mongodb.Connect(ctx, env.MongoURI)
		if err != nil {
			return nil, err
		}
		return mongodb.NewStore(client.Database(env.MongoDatabase)), nil
	case envvars.Memory:
		return docstore.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown document store %q", env.DocStore)
}

func newIdentity(ctx context.Context, env envvars.Env) (identity.Provider, error) {
	switch env.AuthProvider {
	case envvars.Firebase:
		app, err := gcp.CreateFirebaseApp(ctx, env.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		return identity.NewFirebase(ctx, app)
	case envvars.JWKS:
		return identity.NewFirebaseJWKS(ctx, env.FirebaseProjectID), nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", env.AuthProvider)
}

func newUploader(ctx context.Context, env envvars.Env) (blob.Uploader, error) {
	switch env.BlobProvider {
	case envvars.Cloudinary:
		return cloudinary.NewUploader(cloudinary.NewClient(), env.CloudinaryCloudName, env.CloudinaryPreset), nil
	case envvars.GCS:
		return gcp.NewGCSUploader(ctx, env.GCSBucket)
	case envvars.S3:
		return amazon.NewUploader(ctx, env.AWSRegion, env.S3Bucket)
	}
	return nil, fmt.Errorf("unknown blob provider %q", env.BlobProvider)
}
