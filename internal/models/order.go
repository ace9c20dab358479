package models

import "time"

type OrderItem struct {
	ItemID   int64   `json:"id"`
	Name     string  `json:"nome"`
	Price    float64 `json:"preco"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID              int64       `json:"id"`
	Number          string      `json:"numero_pedido"`
	CustomerName    string      `json:"nome"`
	CustomerPhone   string      `json:"telefone"`
	CustomerAddress string      `json:"endereco"`
	Items           []OrderItem `json:"itens"`
	Total           float64     `json:"total"`
	Status          string      `json:"status"`
	PaymentMethod   string      `json:"forma_pagamento"`
	ChangeFor       *float64    `json:"troco,omitempty"`
	Notes           string      `json:"observacoes"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"data_criacao"`
	UpdatedAt       time.Time   `json:"data_atualizacao"`
}

// ItemsTotal sums price*quantity over the order lines.
func (o *Order) ItemsTotal() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
