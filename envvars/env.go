package envvars

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

const (
	Environment         = "ENVIRONMENT"
	Port                = "PORT"
	DocStore            = "DOCSTORE"
	FirebaseProjectID   = "FIREBASE_PROJECT_ID"
	MongoURI            = "MONGO_URI"
	MongoDatabase       = "MONGO_DATABASE"
	AuthProvider        = "AUTH_PROVIDER"
	BlobProvider        = "BLOB_PROVIDER"
	CloudinaryCloudName = "CLOUDINARY_CLOUD_NAME"
	CloudinaryPreset    = "CLOUDINARY_UPLOAD_PRESET"
	GCSBucket           = "GCS_BUCKET"
	AWSRegion           = "AWS_REGION"
	S3Bucket            = "S3_BUCKET"
	RazorpayKeyID       = "RAZORPAY_KEY_ID"
	RazorpayKeySecret   = "RAZORPAY_KEY_SECRET"
	LocalStoreDir       = "LOCAL_STORE_DIR"
)

const (
	DevEnv        = "dev"
	ProductionEnv = "production"
)

// Document store and provider choices.
const (
	Firestore  = "firestore"
	Mongo      = "mongo"
	Memory     = "memory"
	Firebase   = "firebase"
	JWKS       = "jwks"
	Cloudinary = "cloudinary"
	GCS        = "gcs"
	S3         = "s3"
)

type Env struct {
	Environment         string
	Port                string
	DocStore            string
	FirebaseProjectID   string
	MongoURI            string
	MongoDatabase       string
	AuthProvider        string
	BlobProvider        string
	CloudinaryCloudName string
	CloudinaryPreset    string
	GCSBucket           string
	AWSRegion           string
	S3Bucket            string
	RazorpayKeyID       string
	RazorpayKeySecret   string
	LocalStoreDir       string
}

func GetEvn() Env {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err.Error())
	}
	return Env{
		Environment:         lookup(Environment, DevEnv),
		Port:                lookup(Port, "8080"),
		DocStore:            lookup(DocStore, ""),
		FirebaseProjectID:   lookup(FirebaseProjectID, ""),
		MongoURI:            lookup(MongoURI, ""),
		MongoDatabase:       lookup(MongoDatabase, "stylesphere"),
		AuthProvider:        lookup(AuthProvider, ""),
		BlobProvider:        lookup(BlobProvider, Cloudinary),
		CloudinaryCloudName: lookup(CloudinaryCloudName, ""),
		CloudinaryPreset:    lookup(CloudinaryPreset, ""),
		GCSBucket:           lookup(GCSBucket, ""),
		AWSRegion:           lookup(AWSRegion, ""),
		S3Bucket:            lookup(S3Bucket, ""),
		RazorpayKeyID:       lookup(RazorpayKeyID, ""),
		RazorpayKeySecret:   lookup(RazorpayKeySecret, ""),
		LocalStoreDir:       lookup(LocalStoreDir, ".stylesphere"),
	}
}

func lookup(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func IsProd(env Env) bool {
	return env.Environment == ProductionEnv
}

func IsDev(env Env) bool {
	return env.Environment == DevEnv
}

// RemoteConfigured reports whether both a document store and an identity
// provider are set. Without them the app runs in local mode.
func RemoteConfigured(env Env) bool {
	return env.DocStore != "" && env.AuthProvider != ""
}

// PaymentsConfigured reports whether checkout credentials are present.
func PaymentsConfigured(env Env) bool {
	return env.RazorpayKeyID != "" && env.RazorpayKeySecret != ""
}
