package fewshot

// Example is one curated (question, SQL) pair. The set is fixed at build
// time and immutable at runtime.
type Example struct {
	Question string `json:"question"`
	SQL      string `json:"query"`
}

// Defaults returns the curated example set for the inventory schema.
func Defaults() []Example {
	return []Example{
		{
			Question: "List all products with a stock quantity less than 50.",
			SQL:      "SELECT name, stock_quantity FROM products WHERE stock_quantity < 50;",
		},
		{
			Question: "Show the name and price of all products in the 'Electronics' category.",
			SQL:      "SELECT p.name, p.price FROM products p JOIN categories c ON p.category_id = c.id WHERE c.name = 'Electronics';",
		},
		{
			Question: "Get the total number of completed sales transactions.",
			SQL:      "SELECT COUNT(*) FROM transactions WHERE status = 'COMPLETED' AND transaction_type = 'SALE';",
		},
		{
			Question: "Find all suppliers located in 'Tunis'.",
			SQL:      "SELECT * FROM suppliers WHERE address LIKE '%Tunis%';",
		},
		{
			Question: "Get the name and email of all users with role 'ADMIN'.",
			SQL:      "SELECT name, email FROM users WHERE role = 'ADMIN';",
		},
		{
			Question: "Show the most expensive product.",
			SQL:      "SELECT * FROM products ORDER BY price DESC LIMIT 1;",
		},
		{
			Question: "How many products have expired?",
			SQL:      "SELECT COUNT(*) FROM products WHERE expiry_date < CURRENT_DATE;",
		},
	}
}
