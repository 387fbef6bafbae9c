package order

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

type ProofKind string

const (
	ProofPickup   ProofKind = "pickup"
	ProofDelivery ProofKind = "delivery"
	ProofOther    ProofKind = "other"
)

func ParseProofKind(s string) (ProofKind, error) {
	switch k := ProofKind(s); k {
	case ProofPickup, ProofDelivery, ProofOther:
		return k, nil
	case "":
		return ProofOther, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("proof.type", fmt.Errorf("%q is not a proof type", s))
	}
}

// Proof references evidence stored by the upload collaborator.
type Proof struct {
	url  string
	kind ProofKind
	by   kernel.UUID
	note string
	at   time.Time
}

func newProof(rawURL string, kind ProofKind, by kernel.UUID, note string, at time.Time) (Proof, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Proof{}, errs.NewValueIsRequiredError("proof.url")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return Proof{}, errs.NewValueIsInvalidErrorWithCause("proof.url", err)
	}
	return Proof{url: rawURL, kind: kind, by: by, note: note, at: at}, nil
}

func RestoreProof(rawURL string, kind ProofKind, by kernel.UUID, note string, at time.Time) Proof {
	return Proof{url: rawURL, kind: kind, by: by, note: note, at: at}
}

func (p Proof) URL() string {
	return p.url
}

func (p Proof) Kind() ProofKind {
	return p.kind
}

func (p Proof) By() kernel.UUID {
	return p.by
}

func (p Proof) Note() string {
	return p.note
}

func (p Proof) At() time.Time {
	return p.at
}
