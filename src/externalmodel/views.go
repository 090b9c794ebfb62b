package externalmodel

import "time"

// Wire representations served by the ops API. Prices and pips are strings so
// no precision is lost in JSON.

type Tick struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Bid       string    `json:"bid"`
	Ask       string    `json:"ask"`
}

type Symbol struct {
	Name          string `json:"name"`
	CurrencyBase  string `json:"currency_base"`
	CurrencyQuote string `json:"currency_quote"`
	Digits        int    `json:"digits"`
	SwapLong      string `json:"swap_long"`
	SwapShort     string `json:"swap_short"`
	Description   string `json:"description,omitempty"`
}

type Trade struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	TimeFrame  string `json:"time_frame"`
	Weekday    string `json:"weekday"`
	SlotStart  string `json:"slot_start"`
	SlotEnd    string `json:"slot_end"`
	SpreadMax  int    `json:"spread_max"`
	TakeProfit int    `json:"take_profit"`
	StopLoss   int    `json:"stop_loss"`
	Active     bool   `json:"active"`
	Balance    string `json:"balance"`
}

type Order struct {
	ID          string     `json:"id"`
	TradeID     string     `json:"trade_id"`
	OrderType   string     `json:"order_type"`
	Status      string     `json:"status"`
	Simulator   bool       `json:"simulator"`
	Profit      string     `json:"profit"`
	OpenedAt    time.Time  `json:"opened_at"`
	Session     string     `json:"session"`
	OpenPrice   string     `json:"open_price,omitempty"`
	ClosePrice  string     `json:"close_price,omitempty"`
	LastValueAt *time.Time `json:"last_value_at,omitempty"`
}

type Recommendation struct {
	Trade           Trade  `json:"trade"`
	Reason          string `json:"reason"`
	OpenOrders      int    `json:"open_orders"`
	ClosedOrders    int    `json:"closed_orders"`
	TakeProfitCount int    `json:"take_profit_count"`
	WinRate         int64  `json:"win_rate"`
}

type Activation struct {
	Symbol    string   `json:"symbol"`
	Activated int64    `json:"activated"`
	TradeIDs  []string `json:"trade_ids"`
}

type Exception struct {
	ID        uint      `json:"id"`
	Category  string    `json:"category"`
	Symbol    string    `json:"symbol,omitempty"`
	Method    string    `json:"method"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}
