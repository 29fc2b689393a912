package model

import (
	"encoding/json"
	"time"
)

// If you want helpers for JSON marshal/unmarshal:
func JSONUnmarshal(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

func JSONMarshal(in interface{}) ([]byte, error) {
	return json.Marshal(in)
}

// ----------------------------------------------------------------------
// Wishlist
// ----------------------------------------------------------------------

// WishItemStatus distinguishes plain wishlist entries from items that
// currently have a funding campaign attached.
type WishItemStatus string

const (
	WishItemNormal    WishItemStatus = "NORMAL"
	WishItemInFunding WishItemStatus = "IN_FUNDING"
)

// WishlistVisibility controls who may see a member's wishlist.
type WishlistVisibility string

const (
	VisibilityPublic  WishlistVisibility = "PUBLIC"
	VisibilityFriends WishlistVisibility = "FRIENDS"
	VisibilityPrivate WishlistVisibility = "PRIVATE"
)

// WishItem is a single wished-for product.
type WishItem struct {
	ID        string         `json:"id"`
	ProductID string         `json:"productId"`
	Status    WishItemStatus `json:"status,omitempty"`
	Product   *Product       `json:"product,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitempty"`
}

// Wishlist is a member's wishlist. ItemCount always equals len(Items),
// including while an optimistic edit is in flight.
type Wishlist struct {
	ID         string             `json:"id"`
	MemberID   string             `json:"memberId"`
	Visibility WishlistVisibility `json:"visibility,omitempty"`
	Items      []WishItem         `json:"items"`
	ItemCount  int                `json:"itemCount"`
}

// WishItemCreateRequest adds a product to the caller's wishlist.
type WishItemCreateRequest struct {
	ProductID string `json:"productId"`
}

// WishlistVisibilityUpdateRequest changes wishlist visibility.
type WishlistVisibilityUpdateRequest struct {
	Visibility WishlistVisibility `json:"visibility"`
}

// FriendWishlist is a compact wishlist view used on the friends feed.
type FriendWishlist struct {
	MemberID   string     `json:"memberId"`
	MemberName string     `json:"memberName"`
	Items      []WishItem `json:"items"`
	ItemCount  int        `json:"itemCount"`
}

// FriendWishlistListResponse wraps the friends-wishlists endpoint payload.
type FriendWishlistListResponse struct {
	Wishlists []FriendWishlist `json:"wishlists"`
}

// ----------------------------------------------------------------------
// Cart
// ----------------------------------------------------------------------

// CartItem is one product line in the cart.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Selected  bool      `json:"selected"`
	Product   *Product  `json:"product,omitempty"`
	AddedAt   time.Time `json:"addedAt,omitempty"`
}

// Cart is the member's current cart.
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}

// TotalAmount sums price * quantity over selected items with a product
// attached. Pending optimistic items without product data contribute zero.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		if item.Selected && item.Product != nil {
			total += item.Product.Price * int64(item.Quantity)
		}
	}
	return total
}

// CartItemCreateRequest adds a product to the cart.
type CartItemCreateRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartItemUpdateRequest changes quantity and/or selection of a cart line.
type CartItemUpdateRequest struct {
	Quantity *int  `json:"quantity,omitempty"`
	Selected *bool `json:"selected,omitempty"`
}

// ----------------------------------------------------------------------
// Orders
// ----------------------------------------------------------------------

// OrderItemType tags a line as a funding contribution or a plain purchase.
type OrderItemType string

const (
	OrderItemFundingGift OrderItemType = "FUNDING_GIFT"
	OrderItemGeneral     OrderItemType = "GENERAL"
)

// Order is the order header.
type Order struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	PaymentMethod string    `json:"paymentMethod"`
	TotalAmount   int64     `json:"totalAmount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID            string        `json:"id"`
	OrderItemType OrderItemType `json:"orderItemType"`
	ProductID     string        `json:"productId,omitempty"`
	Amount        int64         `json:"amount"`
}

// OrderDetail is the full order record returned by GET /orders/{id}.
// Read-only from the client's perspective once created.
type OrderDetail struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// FundingItems returns the funding-gift lines of the order.
func (d *OrderDetail) FundingItems() []OrderItem {
	var funding []OrderItem
	for _, item := range d.Items {
		if item.OrderItemType == OrderItemFundingGift {
			funding = append(funding, item)
		}
	}
	return funding
}

// OrderCreateRequest starts checkout for the selected cart items.
type OrderCreateRequest struct {
	PaymentMethod string `json:"paymentMethod,omitempty"`
	UsePoints     bool   `json:"usePoints,omitempty"`
}

// OrderListResponse is the paginated order history payload.
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Page   Page    `json:"page"`
}

// ----------------------------------------------------------------------
// Wallet
// ----------------------------------------------------------------------

// Wallet holds the member's points balance in integer currency units.
type Wallet struct {
	Balance int64 `json:"balance"`
}

// TransactionType classifies a wallet ledger entry.
type TransactionType string

const (
	TransactionCharge   TransactionType = "CHARGE"
	TransactionPayment  TransactionType = "PAYMENT"
	TransactionWithdraw TransactionType = "WITHDRAW"
)

// WalletTransaction is one entry of the wallet history.
type WalletTransaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// WalletChargeRequest tops up the wallet balance.
type WalletChargeRequest struct {
	Amount int64 `json:"amount"`
}

// WalletWithdrawRequest moves points back out of the wallet.
type WalletWithdrawRequest struct {
	Amount int64 `json:"amount"`
}

// WalletWithdrawResponse confirms a withdrawal.
type WalletWithdrawResponse struct {
	Balance       int64  `json:"balance"`
	TransactionID string `json:"transactionId"`
}

// ----------------------------------------------------------------------
// Products
// ----------------------------------------------------------------------

// Product is the catalog item shown on listing pages.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// ProductDetail extends Product with the long-form fields of the detail page.
type ProductDetail struct {
	Product
	Description string   `json:"description,omitempty"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
	StockCount  int      `json:"stockCount,omitempty"`
}

// ProductListResponse is the paginated catalog payload.
type ProductListResponse struct {
	Products []Product `json:"products"`
	Page     Page      `json:"page"`
}

// PopularProductsResponse wraps the popular-products endpoint payload.
type PopularProductsResponse struct {
	Products []Product `json:"products"`
}

// ProductQuery filters the catalog listing. Zero-valued fields are omitted
// from the request.
type ProductQuery struct {
	Category string
	MinPrice int64
	MaxPrice int64
	Sort     string
	Page     int
	Size     int
}

// ----------------------------------------------------------------------
// Members
// ----------------------------------------------------------------------

// Member is the caller's own profile.
type Member struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// MemberPublic is the profile shape visible to other members.
type MemberPublic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// MemberUpdateRequest edits profile fields.
type MemberUpdateRequest struct {
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// MemberListResponse is the paginated friends payload.
type MemberListResponse struct {
	Members []MemberPublic `json:"members"`
	Page    Page           `json:"page"`
}

// ----------------------------------------------------------------------
// Pagination
// ----------------------------------------------------------------------

// SpringPage is the raw Spring Data page envelope the backend serializes
// for history-style endpoints.
type SpringPage[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Size          int  `json:"size"`
	Number        int  `json:"number"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}

// Page is the normalized pagination block used throughout this module.
type Page struct {
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	HasNext       bool `json:"hasNext"`
	HasPrevious   bool `json:"hasPrevious"`
}

// PagedResult pairs a page of items with the normalized Page block.
type PagedResult[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
}

// MapSpringPage converts the raw Spring envelope into the normalized shape.
// hasNext = !last, hasPrevious = !first.
func MapSpringPage[T any](page SpringPage[T]) PagedResult[T] {
	return PagedResult[T]{
		Items: page.Content,
		Page: Page{
			Page:          page.Number,
			Size:          page.Size,
			TotalElements: page.TotalElements,
			TotalPages:    page.TotalPages,
			HasNext:       !page.Last,
			HasPrevious:   !page.First,
		},
	}
}
