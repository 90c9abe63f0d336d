package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
	"freshbasket/internal/validate"
)

type MerchantService struct {
	API *api.Client
	Seq *listing.Sequencers
}

func NewMerchantService(client *api.Client, seq *listing.Sequencers) *MerchantService {
	return &MerchantService{API: client, Seq: seq}
}

func (s *MerchantService) List(ctx context.Context, sid, cred string, q listing.Query) (api.Page[domain.MerchantEnquiry], error) {
	tk := s.Seq.For(sid + ":merchants").Begin(ctx)
	defer tk.Done()
	page, err := s.API.ListMerchants(tk.Context(), cred, q)
	if !tk.Current() {
		return api.Page[domain.MerchantEnquiry]{}, ErrStale
	}
	return page, err
}

func (s *MerchantService) Delete(ctx context.Context, cred, id string) error {
	return s.API.DeleteMerchant(ctx, cred, id)
}

// Register validates the public registration form and submits it. The
// returned form holds what the visitor typed, for re-rendering on error.
func (s *MerchantService) Register(ctx context.Context, values url.Values) (*draft.Form, error) {
	form := draft.New(MerchantSchema)
	if err := form.Apply(values); err != nil {
		return form, err
	}
	if err := form.Validate(); err != nil {
		return form, err
	}
	d := form.Draft()
	email, ok := validate.Email(d.String(draft.Flat("email")))
	if !ok {
		return form, fmt.Errorf("%w: invalid email address", draft.ErrValidation)
	}
	phone, ok := validate.Phone(d.String(draft.Flat("phone")))
	if !ok {
		return form, fmt.Errorf("%w: invalid phone number", draft.ErrValidation)
	}
	m := domain.MerchantEnquiry{
		BusinessName:  strings.TrimSpace(d.String(draft.Flat("businessName"))),
		BusinessType:  validate.OneOf(d.String(draft.Flat("businessType")), domain.BusinessTypes, "Other"),
		ContactPerson: strings.TrimSpace(d.String(draft.Flat("contactPerson"))),
		Email:         email,
		Phone:         phone,
		Address:       strings.TrimSpace(d.String(draft.Flat("address"))),
		Message:       strings.TrimSpace(d.String(draft.Flat("message"))),
	}
	return form, s.API.RegisterMerchant(ctx, m)
}
