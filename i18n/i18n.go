// Package i18n translates UI message codes. Italian is the default; English
// is the fallback for codes missing in another language.
package i18n

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

const (
	IT = "it"
	EN = "en"
)

var (
	defaultLang atomic.Value
	matcher     = language.NewMatcher([]language.Tag{language.Italian, language.English})
)

func init() { defaultLang.Store(IT) }

// SetDefault changes the language used when negotiation fails. Unsupported
// languages are ignored.
func SetDefault(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := messages[lang]; ok {
		defaultLang.Store(lang)
	}
}

// Default returns the configured default language.
func Default() string { return defaultLang.Load().(string) }

// DetectLanguage negotiates the UI language from an Accept-Language header.
func DetectLanguage(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	tag, _, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	base, _ := tag.Base()
	return base.String()
}

// T returns the message for code in lang, falling back to Italian, then
// English, then the code itself.
func T(lang, code string) string {
	for _, l := range []string{lang, IT, EN} {
		if msg, ok := messages[l][code]; ok {
			return msg
		}
	}
	return code
}

// Tf is T followed by fmt.Sprintf.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

var messages = map[string]map[string]string{
	IT: {
		"app_name":             "Nexus CRM",
		"menu":                 "Menu",
		"search":               "Cerca...",
		"new":                  "Nuovo",
		"actions":              "Azioni",
		"view":                 "Visualizza",
		"edit":                 "Modifica",
		"delete":               "Elimina",
		"export":               "Esporta Excel",
		"refresh":              "Aggiorna",
		"empty_table":          "Nessun dato trovato",
		"select_placeholder":   "Seleziona...",
		"save":                 "Salva",
		"cancel":               "Annulla",
		"close":                "Chiudi",
		"add_line":             "Aggiungi riga",
		"remove_line":          "Rimuovi",
		"no_lines":             "Nessuna riga",
		"product":              "Prodotto",
		"description":          "Descrizione",
		"quantity":             "Quantità",
		"unit_price":           "Prezzo unitario",
		"tax_rate":             "IVA %",
		"subtotal":             "Subtotale",
		"tax":                  "IVA",
		"total":                "Totale",
		"current_attachment":   "Visualizza allegato corrente",
		"yes":                  "Sì",
		"no":                   "No",
		"new_title":            "Nuovo %s",
		"edit_title":           "Modifica %s",
		"detail_title":         "Dettaglio %s",
		"confirm_delete_title": "Conferma eliminazione",
		"confirm_delete":       "Eliminare definitivamente %s?",
		"confirm_yes":          "Sì, elimina",
		"loading":              "Caricamento...",
		"load_error":           "Errore nel caricamento dei dati",
		"save_error":           "Errore durante il salvataggio",
		"delete_error":         "Errore durante l'eliminazione",
		"not_found":            "Record non trovato",
		"unknown_resource":     "Sezione sconosciuta",
		"invalid_number":       "Numero non valido",
		"invalid_date":         "Data non valida",
		"dashboard":            "Dashboard",
		"revenue":              "Fatturato",
		"orders":               "Ordini",
		"open_opportunities":   "Opportunità aperte",
		"purchases":            "Acquisti",
		"records_count":        "Record per sezione",
		"latest_invoices":      "Ultime fatture",
		"last_update":          "Ultimo aggiornamento",
		"never":                "mai",
		"field_id":             "ID",
		"field_created_at":     "Creato il",
		"field_updated_at":     "Aggiornato il",
	},
	EN: {
		"app_name":             "Nexus CRM",
		"menu":                 "Menu",
		"search":               "Search...",
		"new":                  "New",
		"actions":              "Actions",
		"view":                 "View",
		"edit":                 "Edit",
		"delete":               "Delete",
		"export":               "Export Excel",
		"refresh":              "Refresh",
		"empty_table":          "No data found",
		"select_placeholder":   "Select...",
		"save":                 "Save",
		"cancel":               "Cancel",
		"close":                "Close",
		"add_line":             "Add line",
		"remove_line":          "Remove",
		"no_lines":             "No lines",
		"product":              "Product",
		"description":          "Description",
		"quantity":             "Quantity",
		"unit_price":           "Unit price",
		"tax_rate":             "VAT %",
		"subtotal":             "Subtotal",
		"tax":                  "VAT",
		"total":                "Total",
		"current_attachment":   "View current attachment",
		"yes":                  "Yes",
		"no":                   "No",
		"new_title":            "New %s",
		"edit_title":           "Edit %s",
		"detail_title":         "%s details",
		"confirm_delete_title": "Confirm deletion",
		"confirm_delete":       "Permanently delete %s?",
		"confirm_yes":          "Yes, delete",
		"loading":              "Loading...",
		"load_error":           "Failed to load data",
		"save_error":           "Failed to save",
		"delete_error":         "Failed to delete",
		"not_found":            "Record not found",
		"unknown_resource":     "Unknown section",
		"invalid_number":       "Invalid number",
		"invalid_date":         "Invalid date",
		"dashboard":            "Dashboard",
		"revenue":              "Revenue",
		"orders":               "Orders",
		"open_opportunities":   "Open opportunities",
		"purchases":            "Purchases",
		"records_count":        "Records per section",
		"latest_invoices":      "Latest invoices",
		"last_update":          "Last update",
		"never":                "never",
		"field_id":             "ID",
		"field_created_at":     "Created at",
		"field_updated_at":     "Updated at",
	},
}
