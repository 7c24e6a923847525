package apitest

// relation describes a foreign key the backend denormalises on read: the
// referenced record's labelField is exposed next to the id as outKey.
type relation struct {
	target     string
	labelField string
	outKey     string
}

type schema struct {
	required  []string
	numbering string // document number prefix, empty for none
	relations map[string]relation
}

var (
	clientRel   = relation{target: "sales/clients", labelField: "name", outKey: "client_name"}
	supplierRel = relation{target: "purchases/suppliers", labelField: "name", outKey: "supplier_name"}
)

var schemas = map[string]schema{
	"sales/clients":  {required: []string{"name"}},
	"sales/contacts": {required: []string{"first_name", "last_name"}, relations: map[string]relation{"client": clientRel}},
	"sales/opportunities": {
		numbering: "OPP",
		relations: map[string]relation{"client": clientRel},
	},
	"sales/offers": {
		numbering: "OFF",
		relations: map[string]relation{
			"opportunity": {target: "sales/opportunities", labelField: "name", outKey: "opportunity_name"},
		},
	},
	"sales/orders": {
		numbering: "SO",
		relations: map[string]relation{
			"from_offer": {target: "sales/offers", labelField: "number", outKey: "offer_number"},
		},
	},
	"sales/invoices": {
		numbering: "INV",
		relations: map[string]relation{
			"order": {target: "sales/orders", labelField: "number", outKey: "order_number"},
		},
	},
	"sales/contracts":     {relations: map[string]relation{"client": clientRel}},
	"purchases/suppliers": {required: []string{"name"}},
	"purchases/orders": {
		required:  []string{"number", "supplier"},
		relations: map[string]relation{"supplier": supplierRel},
	},
	"purchases/invoices": {
		relations: map[string]relation{
			"supplier": supplierRel,
			"order":    {target: "purchases/orders", labelField: "number", outKey: "order_number"},
		},
	},
}
