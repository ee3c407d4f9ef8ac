package tools

import "github.com/modelcontextprotocol/go-sdk/mcp"

const procedurePrefix = "Consultingwerk/SmartComponentsDemo/Sports2000McpServer/"

// Procedures run by the tools.
const (
	ProcGetCustomerDetails    = procedurePrefix + "get-customer-details.p"
	ProcGetItemDetails        = procedurePrefix + "get-item-details.p"
	ProcOpenCustomerForm      = procedurePrefix + "open_customer_form.p"
	ProcQueryCustomers        = procedurePrefix + "query-customers.p"
	ProcUpdateCustomerDetails = procedurePrefix + "update-customer-details.p"
)

// CustomerLookupInput selects customers by number or name.
type CustomerLookupInput struct {
	CustNum  int    `json:"piCustNum,omitempty" jsonschema:"Customer Number (optional)"`
	Name     string `json:"pcName,omitempty" jsonschema:"Customer Name filter (optional)"`
	JWTToken string `json:"pcJwtToken,omitempty" jsonschema:"jwtToken for authentication (optional)"`
}

func (in CustomerLookupInput) params() map[string]any {
	return map[string]any{"piCustNum": in.CustNum, "pcName": in.Name}
}

func (in CustomerLookupInput) inlineCredential() string { return in.JWTToken }

// GetCustomerDetailsTool returns details for one customer or a list of
// matches.
func GetCustomerDetailsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_customer_details",
		Description: "Returns details (Name, Address, City, Country, CreditLimit, Ballance, Salesrep) about customers based on a Customer Number (CustNum) or the customer name. When multiple customers are found using the customer name, a list is returned instead of details",
	}
}

// OpenCustomerFormTool opens the customer form in the browser application.
func OpenCustomerFormTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "open_customer_form",
		Description: "Opens a Customer Form in the Browser web application, either based on the Customer Number (CustNum) or the customer name. When multiple customers are found using the customer name, a list is returned instead of opening the form directly",
	}
}

// ItemLookupInput selects items by name.
type ItemLookupInput struct {
	ItemNameFilter string `json:"pcItemNameFilter,omitempty" jsonschema:"Item Name filter (optional)"`
	JWTToken       string `json:"pcJwtToken,omitempty" jsonschema:"jwtToken for authentication (optional)"`
}

func (in ItemLookupInput) params() map[string]any {
	return map[string]any{"pcItemNameFilter": in.ItemNameFilter}
}

func (in ItemLookupInput) inlineCredential() string { return in.JWTToken }

func GetItemDetailsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_item_details",
		Description: "Returns details about items based on an item name filter. When multiple items match the filter, a list is returned instead of details",
	}
}

// QueryCustomersInput carries an ABL query for the eCustomer table.
type QueryCustomersInput struct {
	QueryString string `json:"pcQueryString" jsonschema:"The OpenEdge ABL Query string for the eCustomer table (mandatory)"`
	JWTToken    string `json:"pcJwtToken,omitempty" jsonschema:"jwtToken for authentication (optional)"`
}

func (in QueryCustomersInput) params() map[string]any {
	return map[string]any{"pcQueryString": in.QueryString}
}

func (in QueryCustomersInput) inlineCredential() string { return in.JWTToken }

func QueryCustomersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "query_customers",
		Description: "Queries/searches customers based on an OpenEdge ABL Query string (FOR EACH) for the eCustomer table. Fields of the table are: CustNum (integer), Country (character), Name (character), Address (character), Address2 (character), City (character), State (character), PostalCode (character), Contact (character), Phone (character), SalesRep (character), CreditLimit (decimal), Balance (decimal), Terms (character), Discount (integer), Comments (character), Fax (character), EmailAddress (character)",
	}
}

// UpdateCustomerInput holds the new field values for a customer. Empty
// fields are left unchanged by the procedure.
type UpdateCustomerInput struct {
	CustNum      int    `json:"piCustNum,omitempty" jsonschema:"Customer Number (optional)"`
	Name         string `json:"pcName,omitempty" jsonschema:"The updated value for the Customer Name (optional)"`
	Address      string `json:"pcAddress,omitempty" jsonschema:"The updated value for the address (street) (optional)"`
	Address2     string `json:"pcAddress2,omitempty" jsonschema:"The updated value for the second address line (optional)"`
	City         string `json:"pcCity,omitempty" jsonschema:"The updated value for the City (optional)"`
	State        string `json:"pcState,omitempty" jsonschema:"The updated value for the State (optional)"`
	PostalCode   string `json:"pcPostalCode,omitempty" jsonschema:"The updated value for the Postal Code (optional)"`
	Country      string `json:"pcCountry,omitempty" jsonschema:"The updated value for the Country (optional)"`
	Phone        string `json:"pcPhone,omitempty" jsonschema:"The updated value for the Phone (optional)"`
	EmailAddress string `json:"pcEmailAddress,omitempty" jsonschema:"The updated value for the Email address (optional)"`
	JWTToken     string `json:"pcJwtToken,omitempty" jsonschema:"jwtToken for authentication (optional)"`
}

func (in UpdateCustomerInput) params() map[string]any {
	return map[string]any{
		"piCustNum":      in.CustNum,
		"pcName":         in.Name,
		"pcAddress":      in.Address,
		"pcAddress2":     in.Address2,
		"pcCity":         in.City,
		"pcState":        in.State,
		"pcPostalCode":   in.PostalCode,
		"pcCountry":      in.Country,
		"pcPhone":        in.Phone,
		"pcEmailAddress": in.EmailAddress,
	}
}

func (in UpdateCustomerInput) inlineCredential() string { return in.JWTToken }

func UpdateCustomerDetailsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_customer_details",
		Description: "Updates fields of a customer record (Name, Address, City, Country, CreditLimit, Ballance, Salesrep) only provide values for the fields that the user instructs you to change",
	}
}
