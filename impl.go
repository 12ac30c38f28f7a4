package main

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"styleSphere/api"
	"styleSphere/models"
	"styleSphere/services/checkout"
	"styleSphere/services/closet"
	"styleSphere/services/marketplace"
	"styleSphere/services/mirror"
	"styleSphere/services/outfit"
	"styleSphere/services/session"
	"styleSphere/services/user"
	"styleSphere/services/view"
	"styleSphere/validator"
)

// ensure that we've conformed to the `ServerInterface` with a compile-time check
var _ api.ServerInterface = (*Server)(nil)

type Server struct {
	Session     session.Service
	Mirror      mirror.Service
	Closet      closet.Service
	Marketplace marketplace.Service
	Outfits     outfit.Service
	Users       user.Service
	Checkout    checkout.Service
	View        *view.Store
}

// fail reports err to the caller and raises an error toast.
func (s Server) fail(c *gin.Context, err error) {
	status, body := api.ErrorFor(err)
	if status >= http.StatusInternalServerError {
		slog.With("error", err.Error()).Error("operation failed", "path", c.FullPath())
	}
	s.View.Dispatch(view.ShowToast(body.Message, view.Failure))
	c.JSON(status, body)
}

func (s Server) toast(message string) {
	s.View.Dispatch(view.ShowToast(message, view.Success))
}

func (s Server) GetPing(c *gin.Context) {
	c.JSON(http.StatusOK, api.Pong{Ping: "pong"})
}

func (s Server) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.Session.Current())
}

func (s Server) SignIn(c *gin.Context) {
	credential, ok := validator.FromContext(c)
	if !ok {
		s.fail(c, fmt.Errorf("missing id token: %w", models.ErrNoIdentity))
		return
	}
	sess, err := s.Session.SignIn(c.Request.Context(), credential.IDToken)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.View.Dispatch(view.Navigate(view.Dashboard))
	c.JSON(http.StatusOK, sess)
}

func (s Server) SignOut(c *gin.Context) {
	if err := s.Session.SignOut(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.View.Dispatch(view.Navigate(view.Login))
	c.JSON(http.StatusOK, s.Session.Current())
}

func (s Server) currentView() api.View {
	return api.ToView(s.Session.Current(), s.Mirror.View(), s.View.State(), s.View.Cursor())
}

func (s Server) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentView())
}

// StreamView sends the view as a server sent event after every mirror change.
func (s Server) StreamView(c *gin.Context) {
	updates, stop := s.Mirror.Listen()
	defer stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case _, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("view", s.currentView())
			return true
		}
	})
}

func (s Server) ListCloset(c *gin.Context, params api.ListClosetParams) {
	items := s.Mirror.View().MyCloset()
	if params.Category != nil {
		filtered := make([]models.ClosetItem, 0, len(items))
		for _, item := range items {
			if item.Category == *params.Category {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	c.JSON(http.StatusOK, items)
}

// readFile returns the uploaded file under field, or nil if none was sent.
func readFile(c *gin.Context, field string) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, models.Invalid("could not read %s: %v", field, err)
	}
	data, err := readAll(header)
	if err != nil {
		return "", nil, models.Invalid("could not read %s: %v", field, err)
	}
	return header.Filename, data, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s Server) UploadClosetItem(c *gin.Context) {
	filename, data, err := readFile(c, "file")
	if err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.Closet.Upload(c.Request.Context(), closet.Upload{
		Category: models.Category(c.PostForm("category")),
		Name:     c.PostForm("name"),
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Item added to your closet")
	c.JSON(http.StatusCreated, item)
}

func (s Server) UpdateClosetItem(c *gin.Context, id string) {
	var req api.CategoryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, models.Invalid("%v", err))
		return
	}
	if err := s.Closet.UpdateCategory(c.Request.Context(), id, req.Category); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) DeleteClosetItem(c *gin.Context, id string) {
	if err := s.Closet.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Item removed")
	c.Status(http.StatusNoContent)
}

func (s Server) recommendations() api.Recommendations {
	return api.ToRecommendations(s.Mirror.View().Recommendations, s.View.Cursor())
}

func (s Server) comboCount() int {
	if recs := s.Mirror.View().Recommendations; recs != nil {
		return len(recs.Combos)
	}
	return 0
}

func (s Server) GetRecommendations(c *gin.Context) {
	c.JSON(http.StatusOK, s.recommendations())
}

func (s Server) NextRecommendation(c *gin.Context) {
	s.View.Dispatch(view.NextOutfit(s.comboCount()))
	c.JSON(http.StatusOK, s.recommendations())
}

func (s Server) PreviousRecommendation(c *gin.Context) {
	s.View.Dispatch(view.PrevOutfit(s.comboCount()))
	c.JSON(http.StatusOK, s.recommendations())
}

func (s Server) ListOutfits(c *gin.Context) {
	outfits := s.Mirror.View().SavedOutfits
	if outfits == nil {
		outfits = []models.SavedOutfit{}
	}
	c.JSON(http.StatusOK, outfits)
}

func (s Server) SaveOutfit(c *gin.Context) {
	var req api.SaveOutfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, models.Invalid("%v", err))
		return
	}
	mine := map[string]models.ClosetItem{}
	for _, item := range s.Mirror.View().MyCloset() {
		mine[item.ID] = item
	}
	items := make([]models.ClosetItem, 0, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		item, ok := mine[id]
		if !ok {
			s.fail(c, models.Invalid("item %s is not in your closet", id))
			return
		}
		items = append(items, item)
	}
	saved, err := s.Outfits.Save(c.Request.Context(), items, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Outfit saved")
	c.JSON(http.StatusCreated, saved)
}

func (s Server) DeleteOutfit(c *gin.Context, id string) {
	if err := s.Outfits.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) BrowseMarketplace(c *gin.Context, params api.BrowseMarketplaceParams) {
	filter := api.ToFilter(params)
	c.JSON(http.StatusOK, marketplace.Browse(s.Mirror.View().Marketplace, filter))
}

func (s Server) CreateListing(c *gin.Context) {
	var form api.ListingForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, models.Invalid("%v", err))
		return
	}
	filename, data, err := readFile(c, "file")
	if err != nil {
		s.fail(c, err)
		return
	}
	input, err := api.ToNewListing(form, filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	listing, err := s.Marketplace.Create(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Listing published")
	c.JSON(http.StatusCreated, listing)
}

func (s Server) UpdateListing(c *gin.Context, id string) {
	var form api.ListingForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, models.Invalid("%v", err))
		return
	}
	filename, data, err := readFile(c, "file")
	if err != nil {
		s.fail(c, err)
		return
	}
	update, err := api.ToListingUpdate(form, filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Marketplace.Update(c.Request.Context(), id, update); err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Listing updated")
	c.Status(http.StatusNoContent)
}

func (s Server) DeleteListing(c *gin.Context, id string) {
	if err := s.Marketplace.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Listing removed")
	c.Status(http.StatusNoContent)
}

func (s Server) CheckoutListing(c *gin.Context, id string) {
	listing, ok := s.Mirror.View().Listing(id)
	if !ok {
		s.fail(c, fmt.Errorf("%w: listing %s", models.ErrNotFound, id))
		return
	}
	pending, err := s.Checkout.Open(c.Request.Context(), checkout.ListingCharge(listing),
		func(r models.Receipt) { s.toast("Payment successful for " + r.Description) },
		func() { s.View.Dispatch(view.ShowToast("Payment cancelled", view.Failure)) },
	)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

func (s Server) CompleteCheckout(c *gin.Context, orderId string) {
	var req api.CompleteCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, models.Invalid("%v", err))
		return
	}
	receipt, err := s.Checkout.Complete(c.Request.Context(), orderId, req.PaymentID, req.Signature)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s Server) CancelCheckout(c *gin.Context, orderId string) {
	if err := s.Checkout.Cancel(orderId); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) ListReceipts(c *gin.Context) {
	receipts, err := s.Checkout.Receipts()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func (s Server) UpdateProfilePicture(c *gin.Context) {
	filename, data, err := readFile(c, "file")
	if err != nil {
		s.fail(c, err)
		return
	}
	url, err := s.Users.UpdateProfilePicture(c.Request.Context(), s.Session.Current().UserID, filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.toast("Profile picture updated")
	c.JSON(http.StatusOK, api.ProfilePicture{URL: url})
}
