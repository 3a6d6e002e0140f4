package devstore

import (
	"strconv"

	"github.com/angelmondragon/storefront/internal/address"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

func (s *Store) Addresses(userID string) []types.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Address, len(s.addresses[userID]))
	copy(out, s.addresses[userID])
	return out
}

// CreateAddress validates with the same rules the client applies.
func (s *Store) CreateAddress(userID string, fields types.AddressFields) (types.Address, error) {
	if err := address.Validate(fields); err != nil {
		return types.Address{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAddress++
	addr := fromFields(strconv.Itoa(s.nextAddress), fields)
	s.addresses[userID] = append(s.addresses[userID], addr)
	return addr, nil
}

func (s *Store) UpdateAddress(userID, id string, fields types.AddressFields) (types.Address, error) {
	if err := address.Validate(fields); err != nil {
		return types.Address{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.addressIndexLocked(userID, id)
	if err != nil {
		return types.Address{}, err
	}
	s.addresses[userID][i] = fromFields(id, fields)
	return s.addresses[userID][i], nil
}

func (s *Store) DeleteAddress(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.addressIndexLocked(userID, id)
	if err != nil {
		return err
	}
	list := s.addresses[userID]
	s.addresses[userID] = append(list[:i], list[i+1:]...)
	return nil
}

func (s *Store) addressIndexLocked(userID, id string) (int, error) {
	for i, addr := range s.addresses[userID] {
		if addr.ID == id {
			return i, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeNotFound, "Address not found with addressId: "+id)
}

func fromFields(id string, fields types.AddressFields) types.Address {
	f := fields.Trimmed()
	addr := types.Address{ID: id, Street: f.Street, City: f.City, State: f.State, Country: f.Country, ZipCode: f.ZipCode}
	if f.Apartment != "" {
		apt := f.Apartment
		addr.Apartment = &apt
	}
	return addr
}
