package commerce

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  lines(first: 50) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            title
            price { amount currencyCode }
            image { url }
            product { title featuredImage { url } }
          }
        }
      }
    }
  }
}`

const searchProductsQuery = `
query searchProducts($query: String!, $first: Int!) {
  products(query: $query, first: $first) {
    edges {
      node {
        id
        title
        handle
        description
        featuredImage { url }
        variants(first: 10) {
          edges {
            node {
              id
              title
              price { amount currencyCode }
              availableForSale
            }
          }
        }
      }
    }
  }
}`

const cartCreateMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { ...CartFields }
    userErrors { field message code }
  }
}` + cartFields

const cartLinesAddMutation = `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    userErrors { field message code }
  }
}` + cartFields

const cartLinesRemoveMutation = `
mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartFields }
    userErrors { field message code }
  }
}` + cartFields

const cartQuery = `
query cart($id: ID!) {
  cart(id: $id) { ...CartFields }
}` + cartFields

const checkoutURLQuery = `
query checkoutUrl($id: ID!) {
  cart(id: $id) { checkoutUrl }
}`

const customerOrdersQuery = `
query customerOrders($token: String!) {
  customer(customerAccessToken: $token) {
    orders(first: 20, reverse: true) {
      edges {
        node {
          id
          name
          orderNumber
          statusUrl
          fulfillmentStatus
          financialStatus
        }
      }
    }
  }
}`

const customerAccessTokenCreateMutation = `
mutation customerAccessTokenCreate($input: CustomerAccessTokenCreateInput!) {
  customerAccessTokenCreate(input: $input) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { field message code }
  }
}`

const activeCartQuery = `
query activeCart($token: String!) {
  customer(customerAccessToken: $token) {
    lastIncompleteCheckout { id }
  }
}`
