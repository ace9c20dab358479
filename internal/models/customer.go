package models

import "time"

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	Email     string    `json:"email"`
	Phone     string    `json:"telefone"`
	Address   string    `json:"endereco"`
	District  string    `json:"bairro"`
	City      string    `json:"cidade"`
	State     string    `json:"estado"`
	ZipCode   string    `json:"cep"`
	Notes     string    `json:"observacoes"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
