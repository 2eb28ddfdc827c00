package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

const (
	ToolQueryProducts  = "query_products"
	ToolCreateCart     = "create_cart"
	ToolAddToCart      = "add_to_cart"
	ToolRemoveFromCart = "remove_from_cart"
	ToolGetCart        = "get_cart"
	ToolBeginCheckout  = "begin_checkout"
	ToolOrderStatus    = "order_status"
)

// Param describes one tool parameter.
type Param struct {
	Name     string
	Type     schema.DataType
	Desc     string
	Required bool
	Elem     *Param
	Fields   []Param
}

// Definition is one registered tool. CartScoped tools always receive the
// session's held cart id.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	CartScoped  bool
}

var lineItem = &Param{
	Type: schema.Object,
	Desc: "A line to add",
	Fields: []Param{
		{Name: "merchandiseId", Type: schema.String, Desc: "Product variant id from the last product search"},
		{Name: "productName", Type: schema.String, Desc: "Product title when the variant id is unknown"},
		{Name: "quantity", Type: schema.Integer, Desc: "Quantity, defaults to 1"},
	},
}

func defaultDefinitions() []Definition {
	return []Definition{
		{
			Name:        ToolQueryProducts,
			Description: "Search for products by title or keyword.",
			Params: []Param{
				{Name: "query", Type: schema.String, Desc: "Search term for product title or description.", Required: true},
			},
		},
		{
			Name:        ToolCreateCart,
			Description: "Create a new cart with optional initial line items.",
			Params: []Param{
				{Name: "lines", Type: schema.Array, Desc: "Initial line items (merchandiseId or productName, quantity).", Elem: lineItem},
			},
		},
		{
			Name:        ToolAddToCart,
			Description: "Add line items to the shopper's cart, creating one when needed.",
			Params: []Param{
				{Name: "cartId", Type: schema.String, Desc: "Cart id. Filled in from the session when omitted."},
				{Name: "lines", Type: schema.Array, Desc: "Line items to add (merchandiseId or productName, quantity).", Elem: lineItem, Required: true},
			},
			CartScoped: true,
		},
		{
			Name:        ToolRemoveFromCart,
			Description: "Remove line items from the cart.",
			Params: []Param{
				{Name: "cartId", Type: schema.String, Desc: "Cart id. Filled in from the session when omitted."},
				{Name: "lineIds", Type: schema.Array, Desc: "Cart line ids to remove. Never product titles or variant ids.", Elem: &Param{Type: schema.String}},
			},
			CartScoped: true,
		},
		{
			Name:        ToolGetCart,
			Description: "Show the current contents of the cart.",
			Params: []Param{
				{Name: "cartId", Type: schema.String, Desc: "Cart id. Filled in from the session when omitted."},
			},
			CartScoped: true,
		},
		{
			Name:        ToolBeginCheckout,
			Description: "Get the checkout URL for the cart.",
			Params: []Param{
				{Name: "cartId", Type: schema.String, Desc: "Cart id. Filled in from the session when omitted."},
			},
			CartScoped: true,
		},
		{
			Name:        ToolOrderStatus,
			Description: "Get the status of an order by order id or order number.",
			Params: []Param{
				{Name: "orderId", Type: schema.String, Desc: "Order id or number", Required: true},
			},
		},
	}
}

// Registry is the fixed set of actions an extracted intent may name.
type Registry struct {
	defs   []Definition
	byName map[string]Definition
}

func NewRegistry() *Registry {
	defs := defaultDefinitions()
	byName := make(map[string]Definition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	return &Registry{defs: defs, byName: byName}
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.byName[strings.TrimSpace(name)]
	return d, ok
}

func (r *Registry) Definitions() []Definition {
	return append([]Definition(nil), r.defs...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		names = append(names, d.Name)
	}
	return names
}

// IsCartScoped reports whether the session cart id must be injected.
func (r *Registry) IsCartScoped(name string) bool {
	d, ok := r.Lookup(name)
	return ok && d.CartScoped
}

// Validate normalizes a call and rejects names outside the registry.
func (r *Registry) Validate(call contractx.ToolCall) (contractx.ToolCall, error) {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		return contractx.ToolCall{}, fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
	}
	if _, ok := r.byName[name]; !ok {
		return contractx.ToolCall{}, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}

	out := call.Clone()
	out.Name = name
	return out, nil
}

// ToolInfos renders the registry for eino tool-calling models.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.defs))
	for _, d := range r.defs {
		params := make(map[string]*schema.ParameterInfo, len(d.Params))
		for _, p := range d.Params {
			params[p.Name] = p.parameterInfo()
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        d.Name,
			Desc:        d.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

func (p Param) parameterInfo() *schema.ParameterInfo {
	info := &schema.ParameterInfo{
		Type:     p.Type,
		Desc:     p.Desc,
		Required: p.Required,
	}
	if p.Elem != nil {
		info.ElemInfo = p.Elem.parameterInfo()
	}
	if len(p.Fields) > 0 {
		info.SubParams = make(map[string]*schema.ParameterInfo, len(p.Fields))
		for _, f := range p.Fields {
			info.SubParams[f.Name] = f.parameterInfo()
		}
	}
	return info
}

// JSONSchema returns the parameter object schema of a tool.
func (d Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Params))
	required := make([]string, 0)
	for _, p := range d.Params {
		props[p.Name] = p.jsonSchema()
		if p.Required {
			required = append(required, p.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		sort.Strings(required)
		out["required"] = required
	}
	return out
}

func (p Param) jsonSchema() map[string]any {
	out := map[string]any{"type": string(p.Type)}
	if p.Desc != "" {
		out["description"] = p.Desc
	}
	if p.Elem != nil {
		out["items"] = p.Elem.jsonSchema()
	}
	if len(p.Fields) > 0 {
		props := make(map[string]any, len(p.Fields))
		for _, f := range p.Fields {
			props[f.Name] = f.jsonSchema()
		}
		out["properties"] = props
	}
	return out
}

// ResponseSchema is the schema of the single-object answer the intent prompt
// asks for, used where the provider can constrain output. An empty name
// means no tool applies.
func (r *Registry) ResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tool_use": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":       map[string]any{"type": "string", "enum": append(r.Names(), "")},
					"parameters": map[string]any{"type": "object"},
				},
				"required": []string{"name", "parameters"},
			},
		},
		"required": []string{"tool_use"},
	}
}

// Describe renders one line per tool for prompts.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, d := range r.defs {
		b.WriteString("- ")
		b.WriteString(d.Name)
		b.WriteString(": ")
		b.WriteString(d.Description)
		if len(d.Params) > 0 {
			names := make([]string, 0, len(d.Params))
			for _, p := range d.Params {
				n := p.Name
				if p.Required {
					n += "*"
				}
				names = append(names, n)
			}
			b.WriteString(" Parameters: ")
			b.WriteString(strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
