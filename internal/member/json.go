package member

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/idprovider"
)

// profileJSON mirrors the wire shape from spec §6: "{id, type, name,
// email, publicKey: base64, creatorId, dateCreated, dateUpdated}".
type profileJSON struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PublicKey   string `json:"publicKey"`
	CreatorID   string `json:"creatorId"`
	DateCreated string `json:"dateCreated"`
	DateUpdated string `json:"dateUpdated"`
}

// MarshalProfile encodes the member's public profile fields (never the
// private key) using the configured IdProvider to render id/creatorId.
func (m *Member) MarshalProfile(provider idprovider.Provider) ([]byte, error) {
	idStr, err := provider.Serialize(m.ID)
	if err != nil {
		return nil, err
	}
	creatorStr, err := provider.Serialize(m.CreatorID)
	if err != nil {
		return nil, err
	}

	doc := profileJSON{
		ID:          idStr,
		Type:        m.Type.String(),
		Name:        m.Name,
		Email:       m.Email,
		PublicKey:   base64.StdEncoding.EncodeToString(cryptocore.SerializePublicKeyCompressed(m.PublicKey)),
		CreatorID:   creatorStr,
		DateCreated: m.DateCreated.Format(time.RFC3339),
		DateUpdated: m.DateUpdated.Format(time.RFC3339),
	}
	return json.Marshal(doc)
}

// UnmarshalProfile parses a profile document into a Member with no
// private material attached. An id the provider cannot parse is decoded
// as plain hex instead; a length mismatch between the decoded id and the
// provider's configured byte length then only warns, per spec §6's
// provider-migration allowance. An id that is neither fails the parse.
func UnmarshalProfile(data []byte, provider idprovider.Provider, logger *slog.Logger) (*Member, error) {
	var doc profileJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	id, err := decodeIDWithMigrationWarning(doc.ID, provider, logger)
	if err != nil {
		return nil, err
	}
	creatorID, err := decodeIDWithMigrationWarning(doc.CreatorID, provider, logger)
	if err != nil {
		return nil, err
	}

	pubBytes, err := base64.StdEncoding.DecodeString(doc.PublicKey)
	if err != nil {
		return nil, err
	}
	pub, err := cryptocore.ParsePublicKey(pubBytes)
	if err != nil {
		return nil, err
	}

	created, err := time.Parse(time.RFC3339, doc.DateCreated)
	if err != nil {
		return nil, err
	}
	updated, err := time.Parse(time.RFC3339, doc.DateUpdated)
	if err != nil {
		return nil, err
	}

	return &Member{
		ID:          id,
		Type:        parseType(doc.Type),
		Name:        doc.Name,
		Email:       doc.Email,
		PublicKey:   pub,
		CreatorID:   creatorID,
		DateCreated: created,
		DateUpdated: updated,
	}, nil
}

func decodeIDWithMigrationWarning(s string, provider idprovider.Provider, logger *slog.Logger) ([]byte, error) {
	b, err := provider.Deserialize(s)
	if err != nil {
		// An id written under a provider of another width is still hex;
		// decode it at its own width so the length check below warns.
		fallback, ferr := idprovider.NewCustomProvider(len(s) / 2)
		if ferr != nil {
			return nil, err
		}
		if b, ferr = fallback.Deserialize(s); ferr != nil {
			return nil, err
		}
	}
	if len(b) != provider.ByteLength() && logger != nil {
		logger.Warn("member id length does not match configured provider; retaining decoded value",
			"decoded_length", len(b), "provider_length", provider.ByteLength())
	}
	return b, nil
}

func parseType(s string) Type {
	switch s {
	case "Admin":
		return TypeAdmin
	case "System":
		return TypeSystem
	case "Anonymous":
		return TypeAnonymous
	default:
		return TypeUser
	}
}
