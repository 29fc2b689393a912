package gift

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common/model"
	"github.com/giftify/giftapi/store"
)

// GetCart returns the caller's cart from the query store, fetching
// GET /api/v2/carts when the cached copy is stale.
func (s *giftService) GetCart(ctx context.Context, token *oauth2.Token) (model.Cart, error) {
	return store.Fetch(ctx, s.store, KeyCart, func(ctx context.Context) (model.Cart, error) {
		var cart model.Cart
		err := s.client.GetJSONFresh(ctx, "api/v2/carts", &cart, token, nil)
		return cart, err
	})
}

// AddCartItem appends a synthesized pending line to the cached cart before
// POST /api/v2/carts/add resolves, then swaps it for the created item.
func (s *giftService) AddCartItem(ctx context.Context, token *oauth2.Token, req model.CartItemCreateRequest) (*model.CartItem, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	pendingID := "pending:" + req.ProductID
	var created *model.CartItem

	mut := store.Mutation[model.Cart]{
		Store: s.store,
		Key:   KeyCart,
		Transform: func(cart model.Cart) model.Cart {
			items := make([]model.CartItem, 0, len(cart.Items)+1)
			items = append(items, cart.Items...)
			items = append(items, model.CartItem{
				ID:        pendingID,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				Selected:  true,
			})
			cart.Items = items
			return cart
		},
		Call: func(ctx context.Context) (*model.Cart, error) {
			body, err := jsonBody(req)
			if err != nil {
				return nil, err
			}
			data, err := s.client.PostJSON(ctx, "api/v2/carts/add", token, body, http.StatusOK, http.StatusCreated)
			if err != nil {
				return nil, err
			}
			created, err = parseOptional[model.CartItem](data)
			if err != nil || created == nil {
				return nil, err
			}
			if cur, ok := store.Value[model.Cart](s.store, KeyCart); ok {
				next := replaceCartItem(cur, pendingID, *created)
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

// UpdateCartItem patches quantity/selection of a cart line, applying the
// change optimistically.
func (s *giftService) UpdateCartItem(ctx context.Context, token *oauth2.Token, itemID string, req model.CartItemUpdateRequest) error {
	mut := store.Mutation[model.Cart]{
		Store: s.store,
		Key:   KeyCart,
		Transform: func(cart model.Cart) model.Cart {
			return patchCartItem(cart, itemID, req)
		},
		Call: func(ctx context.Context) (*model.Cart, error) {
			body, err := jsonBody(req)
			if err != nil {
				return nil, err
			}
			data, err := s.client.PatchJSON(ctx, fmt.Sprintf("api/v2/carts/items/%s", itemID), token, body, http.StatusOK)
			if err != nil {
				return nil, err
			}
			item, err := parseOptional[model.CartItem](data)
			if err != nil || item == nil {
				return nil, err
			}
			if cur, ok := store.Value[model.Cart](s.store, KeyCart); ok {
				next := replaceCartItem(cur, itemID, *item)
				return &next, nil
			}
			return nil, nil
		},
	}
	return mut.Run(ctx)
}

// ToggleCartItemSelection flips the checkbox state of one line.
func (s *giftService) ToggleCartItemSelection(ctx context.Context, token *oauth2.Token, itemID string, selected bool) error {
	return s.UpdateCartItem(ctx, token, itemID, model.CartItemUpdateRequest{Selected: &selected})
}

// RemoveCartItem removes a line optimistically; rollback restores the
// snapshot if DELETE fails.
func (s *giftService) RemoveCartItem(ctx context.Context, token *oauth2.Token, itemID string) error {
	mut := store.Mutation[model.Cart]{
		Store: s.store,
		Key:   KeyCart,
		Transform: func(cart model.Cart) model.Cart {
			items := make([]model.CartItem, 0, len(cart.Items))
			for _, item := range cart.Items {
				if item.ID != itemID {
					items = append(items, item)
				}
			}
			cart.Items = items
			return cart
		},
		Call: func(ctx context.Context) (*model.Cart, error) {
			_, err := s.client.DeleteJSON(ctx, fmt.Sprintf("api/v2/carts/items/%s", itemID), token, nil,
				http.StatusOK, http.StatusNoContent)
			return nil, err
		},
	}
	return mut.Run(ctx)
}

// ClearCart empties the cart optimistically.
func (s *giftService) ClearCart(ctx context.Context, token *oauth2.Token) error {
	mut := store.Mutation[model.Cart]{
		Store: s.store,
		Key:   KeyCart,
		Transform: func(cart model.Cart) model.Cart {
			cart.Items = []model.CartItem{}
			return cart
		},
		Call: func(ctx context.Context) (*model.Cart, error) {
			_, err := s.client.DeleteJSON(ctx, "api/v2/carts/clear", token, nil,
				http.StatusOK, http.StatusNoContent)
			return nil, err
		},
	}
	return mut.Run(ctx)
}

// patchCartItem applies the update request to the matching line.
func patchCartItem(cart model.Cart, itemID string, req model.CartItemUpdateRequest) model.Cart {
	items := make([]model.CartItem, len(cart.Items))
	copy(items, cart.Items)
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		if req.Quantity != nil {
			items[i].Quantity = *req.Quantity
		}
		if req.Selected != nil {
			items[i].Selected = *req.Selected
		}
	}
	cart.Items = items
	return cart
}

// replaceCartItem swaps the line with the given id for the server's item.
func replaceCartItem(cart model.Cart, id string, item model.CartItem) model.Cart {
	items := make([]model.CartItem, len(cart.Items))
	copy(items, cart.Items)
	for i := range items {
		if items[i].ID == id {
			items[i] = item
		}
	}
	cart.Items = items
	return cart
}
