package models

// Category is the free-form label an Item is filed under. The constants below are
// the labels the app seeds for new users; any other non-empty string is a
// user-defined category and is just as valid.
type Category string

const (
	CategoryCash        Category = "Liquidi"
	CategoryBank        Category = "Banca"
	CategoryCredit      Category = "Credito"
	CategoryInvestments Category = "Investimenti"
	CategoryWallet      Category = "Portafoglio"
	CategoryDebt        Category = "Debito"
	CategoryLoan        Category = "Finanziamento"
	CategoryShared      Category = "Condivise"
)

// DefaultCategories lists the seeded categories in display order.
var DefaultCategories = []Category{
	CategoryCash,
	CategoryBank,
	CategoryCredit,
	CategoryInvestments,
	CategoryWallet,
	CategoryDebt,
	CategoryLoan,
	CategoryShared,
}

// IsLiability reports whether values filed under c count towards the debt ratio.
func (c Category) IsLiability() bool {
	return c == CategoryDebt || c == CategoryLoan
}

// IsCustom reports whether c is a user-defined category.
func (c Category) IsCustom() bool {
	for _, known := range DefaultCategories {
		if c == known {
			return false
		}
	}
	return c != ""
}

// Item represents a named financial position (a bank account, a loan, ...).
type Item struct {
	ID        string   `bson:"_id" json:"id"`
	UserID    string   `bson:"userId" json:"userId"`
	Name      string   `bson:"name" json:"name"`
	Category  Category `bson:"category" json:"category"`
	SortOrder int      `bson:"sortOrder" json:"sortOrder"`
	CreatedAt int64    `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
