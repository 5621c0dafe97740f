// Package i18n holds the user-facing messages in English and French.
package i18n

import (
	"context"
	"strings"
)

// Default is used when no supported language is requested.
const Default = "en"

var messages = map[string]map[string]string{
	"en": {
		"required":          "Required",
		"invalid":           "Invalid value",
		"invalid_email":     "Invalid email address",
		"must_be_positive":  "Must be greater than zero",
		"out_of_range":      "Out of range",
		"customer_required": "Please enter Customer name before saving.",
		"save_in_progress":  "A save is already in progress. Please wait.",
		"save_failed":       "Failed to save invoice.",
		"load_failed":       "Failed to load invoice.",
		"saved":             "Invoice saved.",
		"deleted":           "Deleted.",
		"login_failed":      "Login failed.",
		"signup_failed":     "Sign up failed.",
		"session_expired":   "Your session has expired. Please sign in again.",
		"not_found":         "Not found",

		"app_name":        "Invoices",
		"nav_invoices":    "Invoices",
		"nav_items":       "Items",
		"nav_logout":      "Sign out",
		"login_title":     "Sign in",
		"signup_title":    "Create an account",
		"email":           "Email",
		"password":        "Password",
		"remember_me":     "Remember me",
		"first_name":      "First name",
		"last_name":       "Last name",
		"company_name":    "Company name",
		"address":         "Address",
		"city":            "City",
		"zip_code":        "Zip code",
		"industry":        "Industry",
		"currency_symbol": "Currency symbol",
		"logo":            "Logo",
		"no_account":      "No account yet?",
		"have_account":    "Already registered?",

		"items":        "Items",
		"new_item":     "New item",
		"item_name":    "Item name",
		"description":  "Description",
		"sales_rate":   "Sales rate",
		"discount_pct": "Discount %",
		"edit":         "Edit",
		"view":         "View",
		"delete":       "Delete",
		"save":         "Save",
		"cancel":       "Cancel",
		"back":         "Back",
		"no_items":     "No items yet.",

		"invoices":       "Invoices",
		"new_invoice":    "New invoice",
		"invoice_no":     "Invoice no",
		"invoice_date":   "Date",
		"customer_name":  "Customer name",
		"notes":          "Notes",
		"tax_percentage": "Tax %",
		"amount":         "Amount",
		"status":         "Status",
		"no_invoices":    "No invoices yet.",
		"row_no":         "#",
		"item":           "Item",
		"quantity":       "Qty",
		"rate":           "Rate",
		"line_total":     "Total",
		"add_line":       "Add line",
		"remove":         "Remove",
		"recalculate":    "Recalculate",
		"sub_total":      "Subtotal",
		"tax_amount":     "Tax",
		"invoice_amount": "Total",
		"print":          "Print",
		"download_pdf":   "PDF",
		"saving":         "Saving...",
		"created_by":     "Created by",
		"updated_by":     "Updated by",
		"bill_to":        "Bill to",
	},
	"fr": {
		"required":          "Requis",
		"invalid":           "Valeur invalide",
		"invalid_email":     "Adresse e-mail invalide",
		"must_be_positive":  "Doit être supérieur à zéro",
		"out_of_range":      "Hors limites",
		"customer_required": "Veuillez saisir le nom du client avant d'enregistrer.",
		"save_in_progress":  "Un enregistrement est déjà en cours. Veuillez patienter.",
		"save_failed":       "Échec de l'enregistrement de la facture.",
		"load_failed":       "Échec du chargement de la facture.",
		"saved":             "Facture enregistrée.",
		"deleted":           "Supprimé.",
		"login_failed":      "Échec de la connexion.",
		"signup_failed":     "Échec de l'inscription.",
		"session_expired":   "Votre session a expiré. Veuillez vous reconnecter.",
		"not_found":         "Introuvable",

		"app_name":        "Factures",
		"nav_invoices":    "Factures",
		"nav_items":       "Articles",
		"nav_logout":      "Déconnexion",
		"login_title":     "Connexion",
		"signup_title":    "Créer un compte",
		"email":           "E-mail",
		"password":        "Mot de passe",
		"remember_me":     "Se souvenir de moi",
		"first_name":      "Prénom",
		"last_name":       "Nom",
		"company_name":    "Société",
		"address":         "Adresse",
		"city":            "Ville",
		"zip_code":        "Code postal",
		"industry":        "Secteur",
		"currency_symbol": "Symbole monétaire",
		"logo":            "Logo",
		"no_account":      "Pas encore de compte ?",
		"have_account":    "Déjà inscrit ?",

		"items":        "Articles",
		"new_item":     "Nouvel article",
		"item_name":    "Nom de l'article",
		"description":  "Description",
		"sales_rate":   "Prix de vente",
		"discount_pct": "Remise %",
		"edit":         "Modifier",
		"view":         "Voir",
		"delete":       "Supprimer",
		"save":         "Enregistrer",
		"cancel":       "Annuler",
		"back":         "Retour",
		"no_items":     "Aucun article.",

		"invoices":       "Factures",
		"new_invoice":    "Nouvelle facture",
		"invoice_no":     "N° de facture",
		"invoice_date":   "Date",
		"customer_name":  "Nom du client",
		"notes":          "Notes",
		"tax_percentage": "TVA %",
		"amount":         "Montant",
		"status":         "Statut",
		"no_invoices":    "Aucune facture.",
		"row_no":         "#",
		"item":           "Article",
		"quantity":       "Qté",
		"rate":           "Prix",
		"line_total":     "Total",
		"add_line":       "Ajouter une ligne",
		"remove":         "Retirer",
		"recalculate":    "Recalculer",
		"sub_total":      "Sous-total",
		"tax_amount":     "TVA",
		"invoice_amount": "Total",
		"print":          "Imprimer",
		"download_pdf":   "PDF",
		"saving":         "Enregistrement...",
		"created_by":     "Créé par",
		"updated_by":     "Modifié par",
		"bill_to":        "Facturer à",
	},
}

// T returns the message for code in lang, falling back to the default
// language and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a message table.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks the first supported language of an Accept-Language
// header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(base) {
			return base
		}
	}
	return Default
}

type langKey struct{}

// WithLang stores the request language in context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language, or Default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}
