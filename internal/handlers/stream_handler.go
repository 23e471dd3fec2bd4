package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"chorepoints/internal/docstore"
	"chorepoints/internal/repository"
)

// streamedCollections are pushed to dashboard clients, filtered by family
var streamedCollections = []string{
	repository.CollectionUsers,
	repository.CollectionTasks,
	repository.CollectionRewards,
	repository.CollectionClaims,
}

// streamMessage is one websocket frame: a full snapshot of a collection
type streamMessage struct {
	Collection string              `json:"collection"`
	Documents  []docstore.Document `json:"documents"`
}

// StreamHandler pushes live family snapshots over a websocket. Every
// change to a streamed collection re-sends that collection's current
// documents for the family.
type StreamHandler struct {
	store    docstore.Store
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(store docstore.Store) *StreamHandler {
	return &StreamHandler{
		store: store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /families/{id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := make(map[string]*docstore.Subscription, len(streamedCollections))
	for _, collection := range streamedCollections {
		sub, err := h.store.Subscribe(ctx, collection, docstore.Query{
			Filters: []docstore.Filter{docstore.Eq("family_id", familyID)},
		})
		if err != nil {
			for _, s := range subs {
				s.Cancel()
			}
			respondWithError(w, http.StatusInternalServerError, "failed to subscribe", err)
			return
		}
		subs[collection] = sub
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		for _, s := range subs {
			s.Cancel()
		}
		log.Printf("Failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	// The client sends nothing meaningful; reading detects disconnect
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	frames := make(chan streamMessage)
	for collection, sub := range subs {
		go forwardSnapshots(ctx, collection, sub, frames)
	}

	for {
		select {
		case <-ctx.Done():
			for _, s := range subs {
				s.Cancel()
			}
			return
		case msg := <-frames:
			if err := ws.WriteJSON(msg); err != nil {
				log.Printf("Failed to write to websocket: %v", err)
				cancel()
				for _, s := range subs {
					s.Cancel()
				}
				return
			}
		}
	}
}

// forwardSnapshots relays one subscription's snapshots onto the shared
// frame channel until the subscription or the context ends
func forwardSnapshots(ctx context.Context, collection string, sub *docstore.Subscription, frames chan<- streamMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case docs, ok := <-sub.Updates():
			if !ok {
				return
			}
			select {
			case frames <- streamMessage{Collection: collection, Documents: docs}:
			case <-ctx.Done():
				return
			}
		}
	}
}
