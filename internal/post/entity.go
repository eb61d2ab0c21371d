// AngelaMos | 2026
// entity.go

package post

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlatformWixBlog marks posts recorded after a Wix blog publish.
const PlatformWixBlog = "wix-blog"

type Post struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	OriginalContent string    `db:"original_content"`
	Platform        string    `db:"platform"`
	GeneratedText   string    `db:"generated_text"`
	Metadata        Metadata  `db:"metadata"`
	CreatedAt       time.Time `db:"created_at"`
}

// Metadata is the JSONB metadata column.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("encode post metadata: %w", err)
	}
	return b, nil
}

func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan post metadata: unsupported type %T", src)
	}

	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan post metadata: %w", err)
	}
	*m = out
	return nil
}
