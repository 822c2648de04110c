package model

import (
	"strings"
)

// CategoryGroup buckets categories for reporting.
type CategoryGroup string

const (
	GroupAcquisition    CategoryGroup = "acquisition"
	GroupOperational    CategoryGroup = "operational"
	GroupAdministrative CategoryGroup = "administrative"
	GroupFinancial      CategoryGroup = "financial"
	GroupRevenue        CategoryGroup = "revenue"
)

// CategoryDeaths is the ledger category of mortality losses.
const CategoryDeaths = "deaths"

// ExpenseCategory is one entry of the financial category registry.
type ExpenseCategory struct {
	Code            string
	DisplayName     string
	Group           CategoryGroup
	Color           string
	ImpactsCashFlow bool
}

// ExpenseCategories is the single registry of ledger categories. Handlers,
// reports and the ledger all resolve codes through it.
var ExpenseCategories = []ExpenseCategory{
	{"animal_purchase", "Aquisição de Animais", GroupAcquisition, "#10b981", true},
	{"freight", "Frete", GroupAcquisition, "#6366f1", true},
	{"commission", "Comissão", GroupAcquisition, "#f59e0b", true},
	{"feed", "Alimentação", GroupOperational, "#84cc16", true},
	{"health_costs", "Saúde Animal", GroupOperational, "#ef4444", true},
	{"operational_costs", "Custos Operacionais", GroupOperational, "#8b5cf6", true},
	{CategoryDeaths, "Mortalidade", GroupOperational, "#dc2626", false},
	{"weight_loss", "Perda de Peso", GroupOperational, "#f97316", false},
	{"general_admin", "Administrativo Geral", GroupAdministrative, "#64748b", true},
	{"marketing", "Marketing", GroupAdministrative, "#ec4899", true},
	{"personnel", "Pessoal", GroupAdministrative, "#3b82f6", true},
	{"interest", "Juros", GroupFinancial, "#a855f7", true},
	{"fees", "Taxas", GroupFinancial, "#fbbf24", true},
	{"financial_management", "Gestão Financeira", GroupFinancial, "#a3a3a3", true},
	{"financial_other", "Outros Financeiros", GroupFinancial, "#737373", true},
	{"cattle_sales", "Venda de Gado", GroupRevenue, "#22c55e", true},
	{"product_sales", "Venda de Produtos", GroupRevenue, "#14b8a6", true},
	{"service_income", "Receita de Serviços", GroupRevenue, "#06b6d4", true},
	{"other_income", "Outras Receitas", GroupRevenue, "#94a3b8", true},
}

var categoryIndex = func() map[string]ExpenseCategory {
	idx := make(map[string]ExpenseCategory, len(ExpenseCategories))
	for _, c := range ExpenseCategories {
		idx[c.Code] = c
	}
	return idx
}()

// Free-text spellings accepted by NormalizeCategory.
var categoryAliases = map[string]string{
	"compra_gado":          "animal_purchase",
	"compra_animais":       "animal_purchase",
	"aquisicao_de_animais": "animal_purchase",
	"aquisição_de_animais": "animal_purchase",
	"transporte":           "freight",
	"frete":                "freight",
	"comissao":             "commission",
	"comissão":             "commission",
	"mortalidade":          CategoryDeaths,
	"mortes":               CategoryDeaths,
	"alimentacao":          "feed",
	"alimentação":          "feed",
	"racao":                "feed",
	"ração":                "feed",
	"medicamentos":         "health_costs",
	"saude":                "health_costs",
	"saúde":                "health_costs",
	"veterinario":          "health_costs",
	"veterinário":          "health_costs",
}

// LookupCategory resolves a registry code.
func LookupCategory(code string) (ExpenseCategory, bool) {
	c, ok := categoryIndex[code]
	return c, ok
}

// NormalizeCategory maps a free-text category to its registry code. The
// second result is false when no registry entry matches.
func NormalizeCategory(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	if alias, ok := categoryAliases[key]; ok {
		key = alias
	}
	_, ok := categoryIndex[key]
	return key, ok
}

// CategoryDisplayName returns the human label for code, or code itself when
// it is not registered.
func CategoryDisplayName(code string) string {
	if c, ok := categoryIndex[code]; ok {
		return c.DisplayName
	}
	return code
}
