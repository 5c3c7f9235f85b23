package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/rocketscienceinc/metatactoe-backend/internal/apperror"
)

const qrSize = 320

type roomHandler struct {
	logger    *slog.Logger
	rooms     roomLister
	publicURL string
}

func newRoomHandler(logger *slog.Logger, rooms roomLister, publicURL string) *roomHandler {
	return &roomHandler{
		logger:    logger,
		rooms:     rooms,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// List - returns the public view of every room, passwords excluded.
func (that *roomHandler) List(w http.ResponseWriter, _ *http.Request) {
	log := that.logger.With("method", "List")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(that.rooms.List()); err != nil {
		log.Error("failed to encode rooms", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// QR - renders a PNG QR code linking to the room's page on the public frontend.
func (that *roomHandler) QR(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "QR")

	name := mux.Vars(r)["name"]

	if _, err := that.rooms.Get(name); err != nil {
		if errors.Is(err, apperror.ErrRoomNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		log.Error("failed to get room", "room", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	png, err := qrcode.Encode(that.roomURL(name), qrcode.Medium, qrSize)
	if err != nil {
		log.Error("failed to generate qr code", "room", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (that *roomHandler) roomURL(name string) string {
	return that.publicURL + "/room/" + url.PathEscape(name)
}
