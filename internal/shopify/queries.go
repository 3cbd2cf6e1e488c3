package shopify

// GraphQL documents for the Admin API calls this application makes. Variables
// are always passed separately; no user input is ever interpolated into a
// query string except the orders search term, which goes through a variable.

const ordersSearchQuery = `
query findOrders($query: String!, $first: Int!) {
  orders(first: $first, query: $query) {
    edges {
      node {
        id
        name
        displayFinancialStatus
        displayFulfillmentStatus
      }
    }
  }
}`

const fulfillmentOrdersQuery = `
query orderFulfillmentOrders($id: ID!) {
  order(id: $id) {
    id
    name
    displayFinancialStatus
    displayFulfillmentStatus
    fulfillmentOrders(first: 20) {
      edges {
        node {
          id
          status
          lineItems(first: 100) {
            edges {
              node {
                id
                remainingQuantity
                totalQuantity
                lineItem {
                  id
                  title
                  sku
                  variantTitle
                }
              }
            }
          }
        }
      }
    }
  }
}`

const fulfillmentCreateMutation = `
mutation fulfillmentCreateV2($fulfillment: FulfillmentV2Input!) {
  fulfillmentCreateV2(fulfillment: $fulfillment) {
    fulfillment {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`
