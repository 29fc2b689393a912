package gift

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common/model"
	"github.com/giftify/giftapi/store"
)

// GetMyWishlist returns the caller's wishlist from the query store,
// fetching GET /api/v2/wishlists/me when the cached copy is stale.
func (s *giftService) GetMyWishlist(ctx context.Context, token *oauth2.Token) (model.Wishlist, error) {
	return store.Fetch(ctx, s.store, KeyMyWishlist, func(ctx context.Context) (model.Wishlist, error) {
		var wl model.Wishlist
		err := s.client.GetJSONFresh(ctx, "api/v2/wishlists/me", &wl, token, nil)
		return wl, err
	})
}

// GetWishlist returns another member's wishlist.
func (s *giftService) GetWishlist(ctx context.Context, memberID string, token *oauth2.Token) (model.Wishlist, error) {
	return store.Fetch(ctx, s.store, KeyWishlist(memberID), func(ctx context.Context) (model.Wishlist, error) {
		var wl model.Wishlist
		err := s.client.GetJSONFresh(ctx, fmt.Sprintf("api/v2/wishlists/%s", memberID), &wl, token, nil)
		return wl, err
	})
}

// AddWishItem adds a product to the caller's wishlist. The cached wishlist
// gains a synthesized pending item immediately; once the server responds
// with the created item, the pending entry is swapped for the real one.
func (s *giftService) AddWishItem(ctx context.Context, token *oauth2.Token, req model.WishItemCreateRequest) (*model.WishItem, error) {
	pendingID := "pending:" + req.ProductID
	var created *model.WishItem

	mut := store.Mutation[model.Wishlist]{
		Store: s.store,
		Key:   KeyMyWishlist,
		Transform: func(wl model.Wishlist) model.Wishlist {
			items := make([]model.WishItem, 0, len(wl.Items)+1)
			items = append(items, wl.Items...)
			items = append(items, model.WishItem{ID: pendingID, ProductID: req.ProductID})
			wl.Items = items
			wl.ItemCount = len(items)
			return wl
		},
		Call: func(ctx context.Context) (*model.Wishlist, error) {
			body, err := jsonBody(req)
			if err != nil {
				return nil, err
			}
			data, err := s.client.PostJSON(ctx, "api/v2/wishlists/items", token, body, http.StatusOK, http.StatusCreated)
			if err != nil {
				return nil, err
			}
			created, err = parseOptional[model.WishItem](data)
			if err != nil || created == nil {
				return nil, err
			}
			// reconcile: replace the pending entry with the server's item
			if cur, ok := store.Value[model.Wishlist](s.store, KeyMyWishlist); ok {
				next := replaceWishItem(cur, pendingID, *created)
				return &next, nil
			}
			return nil, nil
		},
	}
	if err := mut.Run(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// RemoveWishItem removes an item optimistically: the cached wishlist
// shrinks before DELETE /api/v2/wishlists/items/{itemId} resolves, and is
// restored verbatim if the call fails. Removing an unknown id leaves the
// cached value untouched but the network call still fires.
func (s *giftService) RemoveWishItem(ctx context.Context, token *oauth2.Token, itemID string) error {
	mut := store.Mutation[model.Wishlist]{
		Store: s.store,
		Key:   KeyMyWishlist,
		Transform: func(wl model.Wishlist) model.Wishlist {
			return dropWishItem(wl, itemID)
		},
		Call: func(ctx context.Context) (*model.Wishlist, error) {
			_, err := s.client.DeleteJSON(ctx, fmt.Sprintf("api/v2/wishlists/items/%s", itemID), token, nil,
				http.StatusOK, http.StatusNoContent)
			return nil, err
		},
	}
	return mut.Run(ctx)
}

// UpdateWishlistVisibility patches visibility; the server returns the full
// wishlist, which becomes the new cached value.
func (s *giftService) UpdateWishlistVisibility(ctx context.Context, token *oauth2.Token, visibility model.WishlistVisibility) (*model.Wishlist, error) {
	var updated *model.Wishlist
	mut := store.Mutation[model.Wishlist]{
		Store: s.store,
		Key:   KeyMyWishlist,
		Transform: func(wl model.Wishlist) model.Wishlist {
			wl.Visibility = visibility
			return wl
		},
		Call: func(ctx context.Context) (*model.Wishlist, error) {
			body, err := jsonBody(model.WishlistVisibilityUpdateRequest{Visibility: visibility})
			if err != nil {
				return nil, err
			}
			data, err := s.client.PatchJSON(ctx, "api/v2/wishlists/visibility", token, body, http.StatusOK)
			if err != nil {
				return nil, err
			}
			updated, err = parseOptional[model.Wishlist](data)
			return updated, err
		},
	}
	if err := mut.Run(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// GetFriendsWishlists fetches the friends feed. limit <= 0 means the
// server default.
func (s *giftService) GetFriendsWishlists(ctx context.Context, token *oauth2.Token, limit int) (*model.FriendWishlistListResponse, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = fmt.Sprintf("%d", limit)
	}
	var resp model.FriendWishlistListResponse
	if err := s.client.GetJSONFresh(ctx, "api/v2/friends/wishlists", &resp, token, params); err != nil {
		return nil, err
	}
	return &resp, nil
}

// dropWishItem filters itemID out and keeps ItemCount == len(Items).
func dropWishItem(wl model.Wishlist, itemID string) model.Wishlist {
	items := make([]model.WishItem, 0, len(wl.Items))
	for _, item := range wl.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	wl.Items = items
	wl.ItemCount = len(items)
	return wl
}

// replaceWishItem swaps the pending entry for the server-confirmed item.
func replaceWishItem(wl model.Wishlist, pendingID string, item model.WishItem) model.Wishlist {
	items := make([]model.WishItem, len(wl.Items))
	copy(items, wl.Items)
	for i := range items {
		if items[i].ID == pendingID {
			items[i] = item
		}
	}
	wl.Items = items
	wl.ItemCount = len(items)
	return wl
}
