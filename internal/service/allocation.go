package service

import (
	"boigordo/internal/model"

	"github.com/google/uuid"
)

// deathShare is the number of deaths charged to one allocation.
type deathShare struct {
	LinkID     uuid.UUID
	PurchaseID uuid.UUID
	Deaths     int
}

// distributeDeaths spreads quantity deaths over links in allocation order.
// Each link takes ceil(link.Quantity / totalAnimals × quantity), capped by
// its own quantity and by the deaths still unassigned. Callers guarantee
// quantity <= totalAnimals, so the shares always sum to quantity.
func distributeDeaths(links []model.LotPenLink, totalAnimals, quantity int) []deathShare {
	if totalAnimals <= 0 || quantity <= 0 {
		return nil
	}
	var shares []deathShare
	remaining := quantity
	for _, l := range links {
		if remaining == 0 {
			break
		}
		if l.Quantity <= 0 {
			continue
		}
		n := ceilDiv(l.Quantity*quantity, totalAnimals)
		n = min(n, l.Quantity, remaining)
		if n == 0 {
			continue
		}
		shares = append(shares, deathShare{LinkID: l.ID, PurchaseID: l.PurchaseID, Deaths: n})
		remaining -= n
	}
	return shares
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
