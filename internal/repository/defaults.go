package repository

import (
	"time"

	"cardapio/internal/models"
)

var defaultsStamp = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

// DefaultMenu is the built-in dataset served when every other source fails.
// A fresh slice is returned on each call.
func DefaultMenu() []models.MenuItem {
	items := []models.MenuItem{
		{
			ID:          1,
			Name:        "X BACON DE GOLIATH",
			Description: "Burger de 90g, com American Cheese, 2 fatias de bacon, molho especial de Golliath no pão brioche tostado na manteiga.",
			Price:       24.90,
			Image:       "/img/_MG_0164.jpg",
			Order:       1,
		},
		{
			ID:          2,
			Name:        "GOLLIATH TRIPLO P.C.Q",
			Description: "3x mais carne, 3x mais queijo. Com 3 Burguers de 90g totalizando 270g de carne, e com fatias de American Cheese, no pão brioche tostado na manteiga.",
			Price:       32.90,
			Image:       "/img/_MG_0191.jpg",
			Order:       2,
		},
		{
			ID:          3,
			Name:        "GOLLIATH TRIPLO BACON",
			Description: "3x mais carne, 3x mais queijo e 3x mais bacon. Com 3 Burguers de 90g totalizando 270g de carne, com fatias de American Cheese, 2 fatias de bacon por andar, e molho especial de Golliath no pão brioche tostado na manteiga.",
			Price:       39.90,
			Image:       "/img/_MG_0309.jpg",
			Order:       3,
		},
		{
			ID:          4,
			Name:        "GOLLIATH OKLAHOMA",
			Description: "4 burguers de 90g ao estilo Oklahoma, totalizando 360g de blend, com 4 fatias de queijo cheddar, no pão brioche selado na manteiga.",
			Price:       49.90,
			Image:       "/img/_MG_6201.jpg",
			Order:       4,
		},
	}
	for i := range items {
		items[i].Category = "hamburguers"
		items[i].Featured = true
		items[i].Available = true
		items[i].Active = true
		items[i].CreatedAt = defaultsStamp
		items[i].UpdatedAt = defaultsStamp
	}
	return items
}
