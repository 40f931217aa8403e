package scraper

import (
	"context"

	"gutenfetch/internal/downloader"
)

// ContentStore reports which artifacts already exist
type ContentStore interface {
	Has(id int) (bool, error)
}

// CheckpointStore persists the resume cursor
type CheckpointStore interface {
	Load() (int, error)
	Save(lastID int) error
}

// Fetcher processes one ID that has no artifact yet
type Fetcher interface {
	Fetch(ctx context.Context, id int) (downloader.Result, error)
}

// Observer receives progress events. Calls are made from the run loop
// and should return quickly.
type Observer interface {
	RunStarted(startID, maxID int)
	ItemSkipped(id int)
	ItemFetched(result downloader.Result)
	RunFinished(summary Summary)
}

type nopObserver struct{}

func (nopObserver) RunStarted(startID, maxID int)        {}
func (nopObserver) ItemSkipped(id int)                   {}
func (nopObserver) ItemFetched(result downloader.Result) {}
func (nopObserver) RunFinished(summary Summary)          {}

// Observers fans every event out to each observer in order
type Observers []Observer

func (o Observers) RunStarted(startID, maxID int) {
	for _, obs := range o {
		obs.RunStarted(startID, maxID)
	}
}

func (o Observers) ItemSkipped(id int) {
	for _, obs := range o {
		obs.ItemSkipped(id)
	}
}

func (o Observers) ItemFetched(result downloader.Result) {
	for _, obs := range o {
		obs.ItemFetched(result)
	}
}

func (o Observers) RunFinished(summary Summary) {
	for _, obs := range o {
		obs.RunFinished(summary)
	}
}
