package fortnite

import (
	"time"

	"game-pulse/internal/services/fetch"

	"github.com/go-resty/resty/v2"
)

const defaultAPIBase = "https://fortnite-api.com/v2"

// Service fetches the current Fortnite item shop.
type Service struct {
	apiBase string
	client  *resty.Client
}

func NewService() *Service {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Service{
		apiBase: defaultAPIBase,
		client:  client,
	}
}

// ShopEntry is one purchasable item currently in the shop.
type ShopEntry struct {
	ItemID      string
	Name        string
	Type        string
	Rarity      string
	VbucksPrice int
	Section     string
}

type shopResponse struct {
	Data struct {
		Entries []struct {
			FinalPrice int `json:"finalPrice"`
			Layout     struct {
				Name string `json:"name"`
			} `json:"layout"`
			Items []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Type struct {
					DisplayValue string `json:"displayValue"`
				} `json:"type"`
				Rarity struct {
					DisplayValue string `json:"displayValue"`
				} `json:"rarity"`
			} `json:"items"`
		} `json:"entries"`
	} `json:"data"`
}

// GetShop returns today's shop entries, one per item. Bundles are flattened:
// each item in a bundle carries the bundle's price and section.
func (s *Service) GetShop() ([]ShopEntry, error) {
	url := s.apiBase + "/shop/br"

	var out shopResponse
	if err := fetch.GetJSON(s.client, url, nil, nil, &out); err != nil {
		return nil, err
	}

	var entries []ShopEntry
	seen := make(map[string]bool)
	for _, e := range out.Data.Entries {
		for _, item := range e.Items {
			if item.ID == "" || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			entries = append(entries, ShopEntry{
				ItemID:      item.ID,
				Name:        item.Name,
				Type:        item.Type.DisplayValue,
				Rarity:      item.Rarity.DisplayValue,
				VbucksPrice: e.FinalPrice,
				Section:     e.Layout.Name,
			})
		}
	}
	return entries, nil
}
