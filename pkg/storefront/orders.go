package storefront

import (
	"encoding/json"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultOrderStoreSize = 32

// OrderKey names a stored order.
func OrderKey(databaseID int) string {
	return "order_" + strconv.Itoa(databaseID)
}

// OrderStore keeps the orders placed in this session so a confirmation view
// can show them without another round trip. It is bounded; old orders fall out.
type OrderStore struct {
	entries *lru.Cache[string, []byte]
}

func NewOrderStore(size int) *OrderStore {
	if size <= 0 {
		size = defaultOrderStoreSize
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		// only fails for non-positive sizes
		panic(err)
	}
	return &OrderStore{entries: entries}
}

func (o *OrderStore) Save(order *Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	o.entries.Add(OrderKey(order.DatabaseID), raw)
	return nil
}

func (o *OrderStore) Load(databaseID int) (*Order, bool) {
	raw, ok := o.entries.Get(OrderKey(databaseID))
	if !ok {
		return nil, false
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, false
	}
	return &order, true
}
