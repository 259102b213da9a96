package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/pathfinder/internal/formatter"
	"github.com/desertthunder/pathfinder/internal/models"
)

var _ list.Item = listingItem{}

// listingItem wraps [models.JobListing] with its group to implement [list.Item].
type listingItem struct {
	group   models.JobGroup
	listing models.JobListing
}

func (i listingItem) FilterValue() string {
	return strings.Join([]string{i.listing.Title, i.listing.Company, i.group.Category}, " ")
}

func (i listingItem) Title() string {
	return fmt.Sprintf("%s · %s", i.listing.Title, i.listing.Company)
}

func (i listingItem) Description() string {
	desc := fmt.Sprintf("%s %s", i.group.Category, formatter.FormatPercent(i.group.MatchPercent))
	if i.listing.Location != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.listing.Location)
	}
	if s := i.listing.Extensions.Salary; s != "" {
		desc = fmt.Sprintf("%s • %s", desc, s)
	}
	return desc
}

// listingItems flattens result into one item per listing, best group first.
func listingItems(result *models.AnalysisResult) []list.Item {
	if result == nil {
		return nil
	}
	items := make([]list.Item, 0, result.TotalListings())
	for _, g := range result.Jobs {
		for _, l := range g.Listings {
			items = append(items, listingItem{group: g, listing: l})
		}
	}
	return items
}
