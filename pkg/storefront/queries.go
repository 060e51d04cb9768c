package storefront

const cartFields = `
  contents {
    nodes {
      key
      quantity
      total
      product { node { id databaseId name slug type image { sourceUrl altText } } }
      variation {
        node {
          id databaseId name price regularPrice salePrice stockStatus
          attributes { nodes { name value } }
        }
      }
    }
    itemCount
  }
  subtotal
  total
  needsShippingAddress
  shippingTotal
  chosenShippingMethods
  appliedCoupons { code discountAmount }
  discountTotal
  availableShippingMethods { packageDetails rates { id label cost methodId } }
`

const getCartQuery = `query GetCart { cart {` + cartFields + `} }`

const addToCartMutation = `mutation AddToCart($productId: Int!, $quantity: Int, $variationId: Int) {
  addToCart(input: { productId: $productId, quantity: $quantity, variationId: $variationId }) {
    cart {` + cartFields + `}
  }
}`

const updateQuantitiesMutation = `mutation UpdateCartItemQuantities($items: [CartItemQuantityInput]) {
  updateItemQuantities(input: { items: $items }) {
    cart {` + cartFields + `}
  }
}`

const removeItemsMutation = `mutation RemoveCartItems($keys: [ID]) {
  removeItemsFromCart(input: { keys: $keys }) {
    cart {` + cartFields + `}
  }
}`

const applyCouponMutation = `mutation ApplyCoupon($code: String!) {
  applyCoupon(input: { code: $code }) {
    cart {` + cartFields + `}
  }
}`

const removeCouponsMutation = `mutation RemoveCoupons($codes: [String]) {
  removeCoupons(input: { codes: $codes }) {
    cart {` + cartFields + `}
  }
}`

const updateShippingMethodMutation = `mutation UpdateShippingMethod($shippingMethods: [String]) {
  updateShippingMethod(input: { shippingMethods: $shippingMethods }) {
    cart {` + cartFields + `}
  }
}`

const checkoutMutation = `mutation Checkout($input: CheckoutInput!) {
  checkout(input: $input) {
    order {
      databaseId orderNumber status total date subtotal shippingTotal
      billing { firstName lastName email }
      lineItems { nodes { quantity total product { node { id databaseId name slug type } } } }
    }
    result
    redirect
  }
}`
