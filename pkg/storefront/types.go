package storefront

// ProductNode is the product summary embedded in cart lines and order items.
type ProductNode struct {
	ID         string `json:"id"`
	DatabaseID int    `json:"databaseId"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Type       string `json:"type,omitempty"`
	Image      *Image `json:"image,omitempty"`
}

type Image struct {
	SourceURL string `json:"sourceUrl"`
	AltText   string `json:"altText"`
}

type VariationAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variation is a purchasable product variation. An empty attribute value
// matches any selection for that attribute.
type Variation struct {
	ID           string `json:"id"`
	DatabaseID   int    `json:"databaseId"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	RegularPrice string `json:"regularPrice"`
	SalePrice    string `json:"salePrice"`
	StockStatus  string `json:"stockStatus"`
	Attributes   struct {
		Nodes []VariationAttribute `json:"nodes"`
	} `json:"attributes"`
}

// StockOutOfStock is the stock status that makes a variation unpurchasable.
const StockOutOfStock = "OUT_OF_STOCK"

type CartItem struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
	Product  struct {
		Node ProductNode `json:"node"`
	} `json:"product"`
	Variation *struct {
		Node Variation `json:"node"`
	} `json:"variation,omitempty"`
}

type AppliedCoupon struct {
	Code           string `json:"code"`
	DiscountAmount string `json:"discountAmount"`
}

type ShippingRate struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Cost     string `json:"cost"`
	MethodID string `json:"methodId"`
}

type ShippingPackage struct {
	PackageDetails string         `json:"packageDetails"`
	Rates          []ShippingRate `json:"rates"`
}

// Cart mirrors the origin's cart. Every mutation returns a full replacement.
type Cart struct {
	Contents struct {
		Nodes     []CartItem `json:"nodes"`
		ItemCount int        `json:"itemCount"`
	} `json:"contents"`
	Subtotal                 string            `json:"subtotal"`
	Total                    string            `json:"total"`
	NeedsShippingAddress     bool              `json:"needsShippingAddress"`
	ShippingTotal            string            `json:"shippingTotal"`
	ChosenShippingMethods    []string          `json:"chosenShippingMethods"`
	AppliedCoupons           []AppliedCoupon   `json:"appliedCoupons"`
	DiscountTotal            string            `json:"discountTotal"`
	AvailableShippingMethods []ShippingPackage `json:"availableShippingMethods,omitempty"`
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Contents.Nodes = make([]CartItem, len(c.Contents.Nodes))
	for i, item := range c.Contents.Nodes {
		if item.Variation != nil {
			v := *item.Variation
			v.Node.Attributes.Nodes = append([]VariationAttribute(nil), item.Variation.Node.Attributes.Nodes...)
			item.Variation = &v
		}
		if item.Product.Node.Image != nil {
			img := *item.Product.Node.Image
			item.Product.Node.Image = &img
		}
		out.Contents.Nodes[i] = item
	}
	out.ChosenShippingMethods = append([]string(nil), c.ChosenShippingMethods...)
	out.AppliedCoupons = append([]AppliedCoupon(nil), c.AppliedCoupons...)
	out.AvailableShippingMethods = make([]ShippingPackage, len(c.AvailableShippingMethods))
	for i, p := range c.AvailableShippingMethods {
		p.Rates = append([]ShippingRate(nil), p.Rates...)
		out.AvailableShippingMethods[i] = p
	}
	return &out
}

// Item finds a line by key.
func (c *Cart) Item(key string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Contents.Nodes {
		if item.Key == key {
			return item, true
		}
	}
	return CartItem{}, false
}

type OrderLineItem struct {
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
	Product  struct {
		Node ProductNode `json:"node"`
	} `json:"product"`
}

// Order is the summary returned by checkout.
type Order struct {
	DatabaseID    int    `json:"databaseId"`
	OrderNumber   string `json:"orderNumber"`
	Status        string `json:"status"`
	Total         string `json:"total"`
	Subtotal      string `json:"subtotal"`
	ShippingTotal string `json:"shippingTotal"`
	Date          string `json:"date"`
	Billing       struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	} `json:"billing"`
	LineItems struct {
		Nodes []OrderLineItem `json:"nodes"`
	} `json:"lineItems"`
}

// User is the viewer as reported by the gateway's auth routes.
type User struct {
	ID         string `json:"id"`
	DatabaseID int    `json:"databaseId"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}
