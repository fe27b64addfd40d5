package domain

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	TotalUsers        int       `json:"total_users"`
	TotalSellers      int       `json:"total_sellers"`
	PendingSellers    int       `json:"pending_sellers"`
	ActiveProducts    int       `json:"active_products"`
	TotalOrders       int       `json:"total_orders"`
	DeliveredRevenue  int64     `json:"delivered_revenue"`
	AverageOrderValue int64     `json:"average_order_value"`
	RecentOrders      []Order   `json:"recent_orders"`
	TopRatedProducts  []Product `json:"top_rated_products"`
}

// SalesPoint is one day's aggregate in the sales report.
type SalesPoint struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"`
}
