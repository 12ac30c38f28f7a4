package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"styleSphere/models"
)

// ListClosetParams defines parameters for ListCloset.
type ListClosetParams struct {
	Category *models.Category `form:"category,omitempty" json:"category,omitempty"`
}

// BrowseMarketplaceParams defines parameters for BrowseMarketplace.
type BrowseMarketplaceParams struct {
	Category     *[]string `form:"category,omitempty" json:"category,omitempty"`
	Availability *[]string `form:"availability,omitempty" json:"availability,omitempty"`
	Gender       *[]string `form:"gender,omitempty" json:"gender,omitempty"`
	Q            *string   `form:"q,omitempty" json:"q,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *gin.Context)
	// (GET /session)
	GetSession(c *gin.Context)
	// (POST /session)
	SignIn(c *gin.Context)
	// (DELETE /session)
	SignOut(c *gin.Context)
	// (GET /view)
	GetView(c *gin.Context)
	// (GET /events)
	StreamView(c *gin.Context)
	// (GET /closet)
	ListCloset(c *gin.Context, params ListClosetParams)
	// (POST /closet)
	UploadClosetItem(c *gin.Context)
	// (PATCH /closet/{id})
	UpdateClosetItem(c *gin.Context, id string)
	// (DELETE /closet/{id})
	DeleteClosetItem(c *gin.Context, id string)
	// (GET /recommendations)
	GetRecommendations(c *gin.Context)
	// (POST /recommendations/next)
	NextRecommendation(c *gin.Context)
	// (POST /recommendations/previous)
	PreviousRecommendation(c *gin.Context)
	// (GET /outfits)
	ListOutfits(c *gin.Context)
	// (POST /outfits)
	SaveOutfit(c *gin.Context)
	// (DELETE /outfits/{id})
	DeleteOutfit(c *gin.Context, id string)
	// (GET /marketplace)
	BrowseMarketplace(c *gin.Context, params BrowseMarketplaceParams)
	// (POST /marketplace)
	CreateListing(c *gin.Context)
	// (PATCH /marketplace/{id})
	UpdateListing(c *gin.Context, id string)
	// (DELETE /marketplace/{id})
	DeleteListing(c *gin.Context, id string)
	// (POST /marketplace/{id}/checkout)
	CheckoutListing(c *gin.Context, id string)
	// (POST /checkout/{orderId}/complete)
	CompleteCheckout(c *gin.Context, orderId string)
	// (POST /checkout/{orderId}/cancel)
	CancelCheckout(c *gin.Context, orderId string)
	// (GET /receipts)
	ListReceipts(c *gin.Context)
	// (PUT /profile/picture)
	UpdateProfilePicture(c *gin.Context)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler      ServerInterface
	ErrorHandler func(*gin.Context, error, int)
}

func (siw *ServerInterfaceWrapper) pathParam(c *gin.Context, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter %s: %w", name, err), http.StatusBadRequest)
		return "", false
	}
	return value, true
}

func (siw *ServerInterfaceWrapper) withID(name string, handle func(*gin.Context, string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := siw.pathParam(c, name)
		if !ok {
			return
		}
		handle(c, value)
	}
}

// ListCloset operation middleware
func (siw *ServerInterfaceWrapper) ListCloset(c *gin.Context) {
	var params ListClosetParams
	err := runtime.BindQueryParameter("form", true, false, "category", c.Request.URL.Query(), &params.Category)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter category: %w", err), http.StatusBadRequest)
		return
	}
	siw.Handler.ListCloset(c, params)
}

// BrowseMarketplace operation middleware
func (siw *ServerInterfaceWrapper) BrowseMarketplace(c *gin.Context) {
	var params BrowseMarketplaceParams
	query := c.Request.URL.Query()
	bind := []struct {
		name string
		dest any
	}{
		{"category", &params.Category},
		{"availability", &params.Availability},
		{"gender", &params.Gender},
		{"q", &params.Q},
	}
	for _, b := range bind {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter %s: %w", b.name, err), http.StatusBadRequest)
			return
		}
	}
	siw.Handler.BrowseMarketplace(c, params)
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, Error{Code: "invalid_request", Message: err.Error()})
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:      si,
		ErrorHandler: errorHandler,
	}
	base := options.BaseURL

	router.GET(base+"/ping", si.GetPing)
	router.GET(base+"/session", si.GetSession)
	router.POST(base+"/session", si.SignIn)
	router.DELETE(base+"/session", si.SignOut)
	router.GET(base+"/view", si.GetView)
	router.GET(base+"/events", si.StreamView)
	router.GET(base+"/closet", wrapper.ListCloset)
	router.POST(base+"/closet", si.UploadClosetItem)
	router.PATCH(base+"/closet/:id", wrapper.withID("id", si.UpdateClosetItem))
	router.DELETE(base+"/closet/:id", wrapper.withID("id", si.DeleteClosetItem))
	router.GET(base+"/recommendations", si.GetRecommendations)
	router.POST(base+"/recommendations/next", si.NextRecommendation)
	router.POST(base+"/recommendations/previous", si.PreviousRecommendation)
	router.GET(base+"/outfits", si.ListOutfits)
	router.POST(base+"/outfits", si.SaveOutfit)
	router.DELETE(base+"/outfits/:id", wrapper.withID("id", si.DeleteOutfit))
	router.GET(base+"/marketplace", wrapper.BrowseMarketplace)
	router.POST(base+"/marketplace", si.CreateListing)
	router.PATCH(base+"/marketplace/:id", wrapper.withID("id", si.UpdateListing))
	router.DELETE(base+"/marketplace/:id", wrapper.withID("id", si.DeleteListing))
	router.POST(base+"/marketplace/:id/checkout", wrapper.withID("id", si.CheckoutListing))
	router.POST(base+"/checkout/:orderId/complete", wrapper.withID("orderId", si.CompleteCheckout))
	router.POST(base+"/checkout/:orderId/cancel", wrapper.withID("orderId", si.CancelCheckout))
	router.GET(base+"/receipts", si.ListReceipts)
	router.PUT(base+"/profile/picture", si.UpdateProfilePicture)
}
