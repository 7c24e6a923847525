package registry

import (
	"strings"

	"github.com/diewo77/nexus-crm/internal/apiclient"
	"github.com/diewo77/nexus-crm/internal/records"
)

// Resource keys.
const (
	Clients          Key = "clients"
	Contacts         Key = "contacts"
	Opportunities    Key = "opportunities"
	Offers           Key = "offers"
	OrdersSales      Key = "orders_sales"
	InvoicesSales    Key = "invoices_sales"
	Contracts        Key = "contracts"
	Suppliers        Key = "suppliers"
	OrdersPurchase   Key = "orders_purchase"
	InvoicesPurchase Key = "invoices_purchase"
)

const attachmentTypes = ".pdf,.doc,.docx,.png,.jpg,.jpeg"

var (
	clientStatus = []Option{
		{"LEAD", "Lead"},
		{"ACTIVE", "Attivo"},
		{"INACTIVE", "Inattivo"},
		{"BAD_DEBT", "Cattivo Pagatore"},
	}
	opportunityStage = []Option{
		{"NEW", "Nuova"},
		{"QUALIFICATION", "Qualificazione"},
		{"PROPOSAL", "Proposta"},
		{"NEGOTIATION", "Negoziazione"},
		{"WON", "Chiusa Vinta"},
		{"LOST", "Chiusa Persa"},
	}
	offerStatus = []Option{
		{"DRAFT", "Bozza"},
		{"SENT", "Inviata"},
		{"ACCEPTED", "Accettata"},
		{"REJECTED", "Rifiutata"},
		{"EXPIRED", "Scaduta"},
	}
	saleOrderStatus = []Option{
		{"PENDING", "In Attesa"},
		{"CONFIRMED", "Confermato"},
		{"SHIPPED", "Spedito"},
		{"DELIVERED", "Consegnato"},
		{"CANCELLED", "Annullato"},
	}
	invoiceStatus = []Option{
		{"DRAFT", "Bozza"},
		{"ISSUED", "Emessa"},
		{"PAID", "Pagata"},
		{"OVERDUE", "Scaduta"},
		{"CANCELLED", "Annullata"},
	}
	contractStatus = []Option{
		{"ACTIVE", "Attivo"},
		{"EXPIRED", "Scaduto"},
		{"RENEWED", "Rinnovato"},
		{"TERMINATED", "Terminato"},
	}
	purchaseOrderStatus = []Option{
		{"DRAFT", "Bozza"},
		{"SENT", "Inviato"},
		{"RECEIVED", "Merce Ricevuta"},
		{"COMPLETED", "Completato"},
		{"CANCELLED", "Annullato"},
	}
	purchaseInvoiceStatus = []Option{
		{"RECEIVED", "Ricevuta"},
		{"PAID", "Pagata"},
		{"OVERDUE", "Scaduta"},
	}
)

const numberHint = "Lascia vuoto per la numerazione automatica"

func init() {
	register(&Definition{
		Key:      Clients,
		Label:    "Clienti",
		Title:    "Gestione Clienti",
		Singular: "Cliente",
		Resource: apiclient.Resource{Group: "sales", Name: "clients"},
		Columns: []Column{
			{Header: "Azienda", Accessor: "name"},
			{Header: "Email", Accessor: "email"},
			{Header: "P.IVA", Accessor: "vat_number"},
			{Header: "Città", Accessor: "city"},
			choiceColumn("Stato", "status", clientStatus),
		},
		fields: func(Collections, records.Record) []Field {
			return []Field{
				{Name: "name", Label: "Ragione Sociale", Kind: KindText},
				{Name: "vat_number", Label: "Partita IVA", Kind: KindText},
				{Name: "tax_code", Label: "Codice Fiscale", Kind: KindText},
				{Name: "email", Label: "Email", Kind: KindEmail},
				{Name: "phone", Label: "Telefono", Kind: KindText},
				{Name: "address", Label: "Indirizzo", Kind: KindTextarea},
				{Name: "city", Label: "Città", Kind: KindText},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: clientStatus, Default: "LEAD"},
			}
		},
	})

	register(&Definition{
		Key:      Contacts,
		Label:    "Contatti",
		Title:    "Contatti",
		Singular: "Contatto",
		Resource: apiclient.Resource{Group: "sales", Name: "contacts"},
		Columns: []Column{
			{Header: "Nome", Accessor: "last_name", Format: fullName},
			relationColumn("Cliente", "client"),
			{Header: "Ruolo", Accessor: "role"},
			{Header: "Email", Accessor: "email"},
			{Header: "Telefono", Accessor: "phone"},
			{Header: "Principale", Accessor: "is_primary", Format: yesNo("is_primary"), Style: StyleBool},
		},
		fields: func(related Collections, _ records.Record) []Field {
			return []Field{
				relationField("client", "Cliente", Clients, related, byName),
				{Name: "first_name", Label: "Nome", Kind: KindText},
				{Name: "last_name", Label: "Cognome", Kind: KindText},
				{Name: "role", Label: "Ruolo", Kind: KindText},
				{Name: "email", Label: "Email", Kind: KindEmail},
				{Name: "phone", Label: "Telefono", Kind: KindText},
				{Name: "is_primary", Label: "Contatto principale", Kind: KindCheckbox},
			}
		},
	})

	register(&Definition{
		Key:      Opportunities,
		Label:    "Opportunità",
		Title:    "Opportunità",
		Singular: "Opportunità",
		Resource: apiclient.Resource{Group: "sales", Name: "opportunities"},
		Columns: []Column{
			{Header: "Numero", Accessor: "number"},
			{Header: "Nome", Accessor: "name"},
			relationColumn("Cliente", "client"),
			choiceColumn("Fase", "stage", opportunityStage),
			{Header: "Chiusura prevista", Accessor: "close_date"},
		},
		fields: func(related Collections, existing records.Record) []Field {
			return []Field{
				relationField("client", "Cliente", Clients, related, byName),
				{Name: "number", Label: "Numero", Kind: KindText, Hint: numberHint},
				{Name: "name", Label: "Nome Opportunità", Kind: KindText},
				{Name: "description", Label: "Descrizione", Kind: KindTextarea},
				{Name: "stage", Label: "Fase", Kind: KindSelect, Options: opportunityStage, Default: "NEW"},
				{Name: "close_date", Label: "Chiusura prevista", Kind: KindDate},
				fileField("attachment", "Allegato", existing),
			}
		},
	})

	register(&Definition{
		Key:      Offers,
		Label:    "Offerte",
		Title:    "Offerte",
		Singular: "Offerta",
		Resource: apiclient.Resource{Group: "sales", Name: "offers"},
		Columns: []Column{
			{Header: "Numero", Accessor: "number"},
			relationColumn("Cliente", "client"),
			relationColumn("Opportunità", "opportunity"),
			{Header: "Data", Accessor: "date"},
			choiceColumn("Stato", "status", offerStatus),
			moneyColumn("Totale", "total_amount"),
		},
		fields: func(related Collections, _ records.Record) []Field {
			return []Field{
				relationField("opportunity", "Opportunità", Opportunities, related, byNumberAndName),
				{Name: "number", Label: "Numero", Kind: KindText, Hint: numberHint},
				{Name: "date", Label: "Data", Kind: KindDate},
				{Name: "valid_until", Label: "Valida fino al", Kind: KindDate},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: offerStatus, Default: "DRAFT"},
				{Name: "description", Label: "Descrizione", Kind: KindTextarea},
				{Name: "notes", Label: "Note", Kind: KindTextarea},
				{Name: "items", Label: "Righe", Kind: KindItems},
			}
		},
	})

	register(&Definition{
		Key:      OrdersSales,
		Label:    "Ordini Vendita",
		Title:    "Ordini di Vendita",
		Singular: "Ordine",
		Resource: apiclient.Resource{Group: "sales", Name: "orders"},
		Columns: []Column{
			{Header: "Numero", Accessor: "number"},
			relationColumn("Cliente", "client"),
			{Header: "Offerta", Accessor: "offer_number", Format: documentRef("from_offer", "offer_number")},
			{Header: "Data", Accessor: "date"},
			choiceColumn("Stato", "status", saleOrderStatus),
			moneyColumn("Totale", "total_amount"),
		},
		fields: func(related Collections, _ records.Record) []Field {
			return []Field{
				relationField("from_offer", "Da Offerta", Offers, related, byNumber).labelFrom("offer_number"),
				{Name: "number", Label: "Numero", Kind: KindText, Hint: numberHint},
				{Name: "date", Label: "Data", Kind: KindDate},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: saleOrderStatus, Default: "PENDING"},
				{Name: "invoicing_date", Label: "Data fatturazione", Kind: KindDate},
				{Name: "total_amount", Label: "Totale", Kind: KindNumber},
				{Name: "items", Label: "Righe", Kind: KindItems},
			}
		},
	})

	register(&Definition{
		Key:      InvoicesSales,
		Label:    "Fatture",
		Title:    "Fatture di Vendita",
		Singular: "Fattura",
		Resource: apiclient.Resource{Group: "sales", Name: "invoices"},
		Columns: []Column{
			{Header: "Numero", Accessor: "number"},
			relationColumn("Cliente", "client"),
			{Header: "Ordine", Accessor: "order_number", Format: documentRef("order", "order_number")},
			{Header: "Data", Accessor: "date"},
			{Header: "Scadenza", Accessor: "due_date"},
			choiceColumn("Stato", "status", invoiceStatus),
			moneyColumn("Totale", "total_amount"),
		},
		fields: func(related Collections, _ records.Record) []Field {
			return []Field{
				relationField("order", "Ordine", OrdersSales, related, byNumber).labelFrom("order_number"),
				{Name: "number", Label: "Numero", Kind: KindText, Hint: numberHint},
				{Name: "date", Label: "Data", Kind: KindDate},
				{Name: "due_date", Label: "Scadenza", Kind: KindDate},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: invoiceStatus, Default: "DRAFT"},
				{Name: "total_amount", Label: "Totale", Kind: KindNumber},
				{Name: "payment_method", Label: "Metodo di pagamento", Kind: KindText},
				{Name: "items", Label: "Righe", Kind: KindItems},
			}
		},
	})

	register(&Definition{
		Key:      Contracts,
		Label:    "Contratti",
		Title:    "Contratti",
		Singular: "Contratto",
		Resource: apiclient.Resource{Group: "sales", Name: "contracts"},
		Columns: []Column{
			{Header: "Titolo", Accessor: "title"},
			relationColumn("Cliente", "client"),
			{Header: "Inizio", Accessor: "start_date"},
			{Header: "Fine", Accessor: "end_date"},
			moneyColumn("Valore", "value"),
			choiceColumn("Stato", "status", contractStatus),
		},
		fields: func(related Collections, existing records.Record) []Field {
			return []Field{
				relationField("client", "Cliente", Clients, related, byName),
				{Name: "title", Label: "Titolo", Kind: KindText},
				{Name: "start_date", Label: "Data inizio", Kind: KindDate},
				{Name: "end_date", Label: "Data fine", Kind: KindDate},
				{Name: "value", Label: "Valore", Kind: KindNumber},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: contractStatus, Default: "ACTIVE"},
				fileField("document_file", "Documento", existing),
			}
		},
	})

	register(&Definition{
		Key:      Suppliers,
		Label:    "Fornitori",
		Title:    "Fornitori",
		Singular: "Fornitore",
		Resource: apiclient.Resource{Group: "purchases", Name: "suppliers"},
		Columns: []Column{
			{Header: "Ragione Sociale", Accessor: "name"},
			{Header: "P.IVA", Accessor: "vat_number"},
			{Header: "Email", Accessor: "email"},
			{Header: "Telefono", Accessor: "phone"},
			{Header: "Pagamento", Accessor: "payment_terms"},
		},
		fields: func(Collections, records.Record) []Field {
			return []Field{
				{Name: "name", Label: "Ragione Sociale", Kind: KindText},
				{Name: "vat_number", Label: "Partita IVA", Kind: KindText},
				{Name: "email", Label: "Email", Kind: KindEmail},
				{Name: "phone", Label: "Telefono", Kind: KindText},
				{Name: "address", Label: "Indirizzo", Kind: KindTextarea},
				{Name: "payment_terms", Label: "Termini di pagamento", Kind: KindText, Hint: "Es. 30gg DFFM"},
			}
		},
	})

	register(&Definition{
		Key:      OrdersPurchase,
		Label:    "Ordini Acquisto",
		Title:    "Ordini di Acquisto",
		Singular: "Ordine di Acquisto",
		Resource: apiclient.Resource{Group: "purchases", Name: "orders"},
		Columns: []Column{
			{Header: "Numero", Accessor: "number"},
			relationColumn("Fornitore", "supplier"),
			{Header: "Data", Accessor: "date"},
			choiceColumn("Stato", "status", purchaseOrderStatus),
			moneyColumn("Totale", "total_amount"),
		},
		fields: func(related Collections, _ records.Record) []Field {
			return []Field{
				relationField("supplier", "Fornitore", Suppliers, related, byName),
				{Name: "number", Label: "Numero", Kind: KindText},
				{Name: "date", Label: "Data", Kind: KindDate},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: purchaseOrderStatus, Default: "DRAFT"},
				{Name: "total_amount", Label: "Totale", Kind: KindNumber},
				{Name: "notes", Label: "Note", Kind: KindTextarea},
			}
		},
	})

	register(&Definition{
		Key:      InvoicesPurchase,
		Label:    "Fatture Acquisto",
		Title:    "Fatture di Acquisto",
		Singular: "Fattura di Acquisto",
		Resource: apiclient.Resource{Group: "purchases", Name: "invoices"},
		Columns: []Column{
			{Header: "Numero", Accessor: "number"},
			relationColumn("Fornitore", "supplier"),
			{Header: "Ordine", Accessor: "order_number", Format: documentRef("order", "order_number")},
			{Header: "Data", Accessor: "date"},
			{Header: "Scadenza", Accessor: "due_date"},
			moneyColumn("Totale", "total_amount"),
			choiceColumn("Stato", "status", purchaseInvoiceStatus),
		},
		fields: func(related Collections, existing records.Record) []Field {
			return []Field{
				relationField("supplier", "Fornitore", Suppliers, related, byName),
				relationField("order", "Ordine di Acquisto", OrdersPurchase, related, byNumber).labelFrom("order_number"),
				{Name: "number", Label: "Numero", Kind: KindText},
				{Name: "date", Label: "Data", Kind: KindDate},
				{Name: "due_date", Label: "Scadenza", Kind: KindDate},
				{Name: "total_amount", Label: "Totale", Kind: KindNumber},
				{Name: "status", Label: "Stato", Kind: KindSelect, Options: purchaseInvoiceStatus, Default: "RECEIVED"},
				fileField("attachment", "Allegato", existing),
			}
		},
	})
}

func byName(r records.Record) string { return r.String("name") }

func byNumber(r records.Record) string { return r.String("number") }

func byNumberAndName(r records.Record) string {
	number, name := r.String("number"), r.String("name")
	switch {
	case number == "":
		return name
	case name == "":
		return number
	}
	return number + " - " + name
}

// relationField builds a select whose options are the records of target.
func relationField(name, label string, target Key, related Collections, optionLabel func(records.Record) string) Field {
	rows := related[target]
	options := make([]Option, 0, len(rows))
	for _, r := range rows {
		id := r.ID()
		if id == "" {
			continue
		}
		text := optionLabel(r)
		if text == "" {
			text = id
		}
		options = append(options, Option{Value: id, Label: text})
	}
	return Field{Name: name, Label: label, Kind: KindSelect, Options: options, Relation: target}
}

func (f Field) labelFrom(field string) Field {
	f.LabelFrom = field
	return f
}

func fileField(name, label string, existing records.Record) Field {
	return Field{
		Name:        name,
		Label:       label,
		Kind:        KindFile,
		Accept:      attachmentTypes,
		ExistingURL: existing.String(name),
	}
}

func relationColumn(header, field string) Column {
	return Column{
		Header:   header,
		Accessor: field,
		Format:   func(r records.Record) string { return r.Label(field) },
	}
}

func choiceColumn(header, field string, options []Option) Column {
	f := Field{Options: options}
	return Column{
		Header:   header,
		Accessor: field,
		Style:    StyleBadge,
		Format: func(r records.Record) string {
			v := r.String(field)
			if v == "" {
				return ""
			}
			return f.OptionLabel(v)
		},
	}
}

func moneyColumn(header, field string) Column {
	return Column{
		Header:   header,
		Accessor: field,
		Style:    StyleMoney,
		Format: func(r records.Record) string {
			if !r.Has(field) {
				return ""
			}
			return "€ " + records.Money(r.Decimal(field))
		},
	}
}

// documentRef shows the denormalised document number, falling back to the id.
func documentRef(field, numberField string) func(records.Record) string {
	return func(r records.Record) string {
		if v := r.String(numberField); v != "" {
			return v
		}
		return r.Label(field)
	}
}

func fullName(r records.Record) string {
	return strings.TrimSpace(r.String("first_name") + " " + r.String("last_name"))
}

func yesNo(field string) func(records.Record) string {
	return func(r records.Record) string {
		switch v := r.Get(field).(type) {
		case bool:
			if v {
				return "Sì"
			}
			return "No"
		case nil:
			return ""
		default:
			return records.Stringify(v)
		}
	}
}
