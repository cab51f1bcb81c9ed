package service

// Plan maps a price label to the access hours it buys.
type Plan struct {
	Price  string `json:"price"`
	Amount int64  `json:"amount"`
	Hours  int    `json:"hours"`
}

var planCatalogue = []Plan{
	{Price: "200F", Amount: 200, Hours: 24},
	{Price: "400F", Amount: 400, Hours: 48},
	{Price: "500F", Amount: 500, Hours: 72},
	{Price: "1000F", Amount: 1000, Hours: 168},
	{Price: "3000F", Amount: 3000, Hours: 720},
	{Price: "5000F", Amount: 5000, Hours: 1140},
}

// Plans returns the fixed hotspot catalogue.
func Plans() []Plan {
	out := make([]Plan, len(planCatalogue))
	copy(out, planCatalogue)
	return out
}
