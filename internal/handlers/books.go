package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Metalzoid/mon-view-grimoire-backend/internal/images"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/middleware"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/models"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/storage"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/logger"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BooksHandler struct {
	DB         *gorm.DB
	Storage    storage.Store
	Processor  *images.Processor
	UploadsDir string
}

func NewBooksHandler(db *gorm.DB, store storage.Store, processor *images.Processor, uploadsDir string) *BooksHandler {
	return &BooksHandler{DB: db, Storage: store, Processor: processor, UploadsDir: uploadsDir}
}

type ratingPayload struct {
	UserID string  `json:"userId"`
	Grade  float64 `json:"grade"`
}

// bookPayload is the metadata half of a book request. On multipart requests
// it arrives JSON-encoded in the "book" form field next to the binary file;
// on metadata-only updates it is the request body itself. parseBookRequest
// resolves both transports into this one shape.
type bookPayload struct {
	Title   string          `json:"title"`
	Author  string          `json:"author"`
	Year    int             `json:"year"`
	Genre   string          `json:"genre"`
	UserID  string          `json:"userId"`
	Ratings []ratingPayload `json:"ratings"`
}

func (p *bookPayload) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(p.Author) == "" {
		return errors.New("author is required")
	}
	if p.Year == 0 {
		return errors.New("year is required")
	}
	if strings.TrimSpace(p.Genre) == "" {
		return errors.New("genre is required")
	}
	return nil
}

func parseBookRequest(c *fiber.Ctx) (*bookPayload, *multipart.FileHeader, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fileHeader = nil
	}

	var payload bookPayload
	if fileHeader != nil {
		if err := json.Unmarshal([]byte(c.FormValue("book")), &payload); err != nil {
			return nil, nil, errors.New("invalid book metadata")
		}
	} else {
		if err := c.BodyParser(&payload); err != nil {
			return nil, nil, errors.New("invalid request body")
		}
	}

	return &payload, fileHeader, nil
}

// storeUploadedImage runs the cover-art pipeline: persist the raw upload,
// normalize it, push the result into the image store and clean up every
// intermediate file. Returns the stored filename.
func (h *BooksHandler) storeUploadedImage(c *fiber.Ctx, fileHeader *multipart.FileHeader) (string, error) {
	name := sanitizeFilename(fileHeader.Filename)
	if name == "" {
		return "", errors.New("invalid filename")
	}

	ext := filepath.Ext(name)
	rawPath := filepath.Join(h.UploadsDir, fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), time.Now().UnixNano(), ext))
	if err := c.SaveFile(fileHeader, rawPath); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}

	processedPath, err := h.Processor.Process(rawPath)
	if err != nil {
		return "", err
	}

	file, err := os.Open(processedPath)
	if err != nil {
		_ = os.Remove(processedPath)
		return "", err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		_ = os.Remove(processedPath)
		return "", err
	}

	storedName := filepath.Base(processedPath)
	saveErr := h.Storage.Save(c.Context(), storedName, file, info.Size(), "image/jpeg")
	file.Close()
	if removeErr := os.Remove(processedPath); removeErr != nil {
		logger.Warn("processed_file_remove_failed", map[string]interface{}{
			"path":  processedPath,
			"error": removeErr.Error(),
		})
	}
	if saveErr != nil {
		return "", saveErr
	}

	return storedName, nil
}

// removeStoredImage is the best-effort side of deletion: a missing file is a
// no-op, anything else is logged and swallowed.
func (h *BooksHandler) removeStoredImage(c *fiber.Ctx, name string) {
	if name == "" {
		return
	}
	if err := h.Storage.Remove(c.Context(), name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Error("image_remove_failed", err, map[string]interface{}{"image": name})
	}
}

func (h *BooksHandler) imageURL(c *fiber.Ctx, storedName string) string {
	return fmt.Sprintf("%s/images/%s", c.BaseURL(), storedName)
}

func (h *BooksHandler) List(c *fiber.Ctx) error {
	var books []models.Book
	if err := h.DB.Preload("Ratings", ratingOrder).Find(&books).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing books")
	}
	return utils.JSON(c, fiber.StatusOK, books)
}

func (h *BooksHandler) BestRating(c *fiber.Ctx) error {
	var books []models.Book
	if err := h.DB.Preload("Ratings", ratingOrder).
		Order("average_rating DESC").
		Limit(3).
		Find(&books).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing best rated books")
	}
	return utils.JSON(c, fiber.StatusOK, books)
}

func (h *BooksHandler) Get(c *fiber.Ctx) error {
	book, err := h.loadBook(c.Params("id"))
	if err != nil {
		return h.bookLoadError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, book)
}

func (h *BooksHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload, fileHeader, err := parseBookRequest(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if fileHeader == nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}
	if err := payload.validate(); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	storedName, err := h.storeUploadedImage(c, fileHeader)
	if err != nil {
		logger.Error("image_processing_failed", err, map[string]interface{}{"user_id": currentUser.ID.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "Error processing image")
	}

	book := models.Book{
		Title:     strings.TrimSpace(payload.Title),
		Author:    strings.TrimSpace(payload.Author),
		Year:      payload.Year,
		Genre:     strings.TrimSpace(payload.Genre),
		ImageURL:  h.imageURL(c, storedName),
		ImageName: storedName,
		UserID:    currentUser.ID.String(),
		Ratings:   []models.Rating{},
	}
	for _, r := range payload.Ratings {
		if r.UserID == "" {
			continue
		}
		book.Ratings = append(book.Ratings, models.Rating{UserID: r.UserID, Grade: r.Grade})
	}
	book.RecomputeAverage()

	if err := h.DB.Create(&book).Error; err != nil {
		h.removeStoredImage(c, storedName)
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating book")
	}

	logger.InfoWithUser(currentUser.ID.String(), "book_created", map[string]interface{}{
		"book_id": book.ID.String(),
		"image":   storedName,
	})

	return utils.Message(c, fiber.StatusCreated, "Book created!")
}

type rateRequest struct {
	UserID string  `json:"userId"`
	Rating float64 `json:"rating"`
}

func (h *BooksHandler) Rate(c *fiber.Ctx) error {
	var req rateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "userId is required")
	}

	book, err := h.loadBook(c.Params("id"))
	if err != nil {
		return h.bookLoadError(c, err)
	}

	// Read-then-check: two concurrent ratings from the same user can both
	// pass, matching the original API's behavior.
	if err := book.AddRating(req.UserID, req.Rating); err != nil {
		if errors.Is(err, models.ErrDuplicateRating) {
			return utils.Error(c, fiber.StatusForbidden, "user has already rated this book")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed adding rating")
	}

	newRating := book.Ratings[len(book.Ratings)-1]
	if err := h.DB.Create(&newRating).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving rating")
	}
	if err := h.DB.Model(&models.Book{}).Where("id = ?", book.ID).
		Update("average_rating", book.AverageRating).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating average rating")
	}

	return utils.JSON(c, fiber.StatusOK, book)
}

func (h *BooksHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload, fileHeader, err := parseBookRequest(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	book, err := h.loadBook(c.Params("id"))
	if err != nil {
		return h.bookLoadError(c, err)
	}

	// Legacy fallback: an ownerless record trusts the userId supplied in the
	// metadata for the ownership comparison.
	owner := book.UserID
	if owner == "" {
		owner = payload.UserID
	}
	if owner != currentUser.ID.String() {
		return utils.Error(c, fiber.StatusForbidden, "unauthorized request")
	}

	if err := payload.validate(); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	updates := map[string]interface{}{
		"title":  strings.TrimSpace(payload.Title),
		"author": strings.TrimSpace(payload.Author),
		"year":   payload.Year,
		"genre":  strings.TrimSpace(payload.Genre),
	}

	var newImage string
	if fileHeader != nil {
		newImage, err = h.storeUploadedImage(c, fileHeader)
		if err != nil {
			logger.Error("image_processing_failed", err, map[string]interface{}{"book_id": book.ID.String()})
			return utils.Error(c, fiber.StatusInternalServerError, "Error processing image")
		}
		updates["image_url"] = h.imageURL(c, newImage)
		updates["image_name"] = newImage
	}

	if err := h.DB.Model(&models.Book{}).Where("id = ?", book.ID).Updates(updates).Error; err != nil {
		// The old image stays referenced by the record; only the freshly
		// written one is rolled back.
		h.removeStoredImage(c, newImage)
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating book")
	}

	if newImage != "" && book.ImageName != newImage {
		h.removeStoredImage(c, book.ImageName)
	}

	logger.InfoWithUser(currentUser.ID.String(), "book_updated", map[string]interface{}{
		"book_id":        book.ID.String(),
		"image_replaced": newImage != "",
	})

	return utils.Message(c, fiber.StatusOK, "Book updated!")
}

func (h *BooksHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	book, err := h.loadBook(c.Params("id"))
	if err != nil {
		return h.bookLoadError(c, err)
	}

	if book.UserID != currentUser.ID.String() {
		return utils.Error(c, fiber.StatusForbidden, "unauthorized request")
	}

	if err := h.DB.Select("Ratings").Delete(book).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting book")
	}

	// The record is gone; image removal is best-effort and never surfaces.
	h.removeStoredImage(c, book.ImageName)

	logger.InfoWithUser(currentUser.ID.String(), "book_deleted", map[string]interface{}{
		"book_id": book.ID.String(),
	})

	return utils.Message(c, fiber.StatusOK, "Book deleted!")
}

func ratingOrder(db *gorm.DB) *gorm.DB {
	return db.Order("ratings.id ASC")
}

func (h *BooksHandler) loadBook(idParam string) (*models.Book, error) {
	bookID, err := parseUUID(idParam)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	var book models.Book
	if err := h.DB.Preload("Ratings", ratingOrder).First(&book, "id = ?", bookID).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (h *BooksHandler) bookLoadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusNotFound, "book not found")
	}
	return utils.Error(c, fiber.StatusInternalServerError, "failed fetching book")
}
