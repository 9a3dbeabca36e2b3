package ingestion

import (
	"context"

	"github.com/rohankatakam/gitpulse/internal/models"
	"github.com/rohankatakam/gitpulse/internal/storage"
)

// authorCache memoizes author identities for the lifetime of one run.
// It only ever holds identities whose writes have been committed.
type authorCache struct {
	byEmail map[string]models.Author
}

func newAuthorCache() *authorCache {
	return &authorCache{byEmail: make(map[string]models.Author)}
}

// dayAuthors resolves identities inside one day's transaction. Changes stay
// pending until the day commits, so a rolled back day leaves the run cache
// untouched.
type dayAuthors struct {
	run     *authorCache
	tx      storage.Tx
	pending map[string]*models.Author
}

func (c *authorCache) forDay(tx storage.Tx) *dayAuthors {
	return &dayAuthors{
		run:     c,
		tx:      tx,
		pending: make(map[string]*models.Author),
	}
}

// resolve returns the identity for email, creating it when unseen. A
// non-empty name replaces the stored one and isAI, once true, stays true.
func (d *dayAuthors) resolve(ctx context.Context, email, name string, isAI bool) (*models.Author, error) {
	author, err := d.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	if author == nil {
		author = &models.Author{Email: email, Name: name, IsAI: isAI}
		if err := d.tx.CreateAuthor(ctx, author); err != nil {
			return nil, err
		}
		d.pending[email] = author
		return author, nil
	}

	changed := false
	if name != "" && name != author.Name {
		author.Name = name
		changed = true
	}
	if isAI && !author.IsAI {
		author.IsAI = true
		changed = true
	}
	if changed {
		if err := d.tx.UpdateAuthor(ctx, author); err != nil {
			return nil, err
		}
	}
	return author, nil
}

func (d *dayAuthors) lookup(ctx context.Context, email string) (*models.Author, error) {
	if author, ok := d.pending[email]; ok {
		return author, nil
	}
	if cached, ok := d.run.byEmail[email]; ok {
		author := cached
		d.pending[email] = &author
		return &author, nil
	}

	author, err := d.tx.FindAuthorByEmail(ctx, email)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.pending[email] = author
	return author, nil
}

// commit folds the day's identities into the run cache
func (d *dayAuthors) commit() {
	for email, author := range d.pending {
		d.run.byEmail[email] = *author
	}
}
