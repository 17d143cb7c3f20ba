// Package ledger owns every change to a wallet balance.
//
// The balance rules are pure functions over a wallet value; Ledger.Apply
// persists one of them together with its audit transaction.
package ledger

import (
	"errors"
	"fmt"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
)

var (
	// ErrInsufficientBalance is returned when available balance does not cover the amount.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrWalletNotFound is returned when the investor has no wallet.
	ErrWalletNotFound = errors.New("ledger: wallet not found")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
)

func checkAmount(amount float64) error {
	if !(amount > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

func checkAvailable(w *models.FundWallet, amount float64) error {
	if money.Round(w.AvailableBalance) < money.Round(amount) {
		return fmt.Errorf("%w: available %.2f, need %.2f", ErrInsufficientBalance, w.AvailableBalance, amount)
	}
	return nil
}

// Credit adds amount to the available balance.
func Credit(w *models.FundWallet, amount float64) error {
	if errAmount := checkAmount(amount); errAmount != nil {
		return errAmount
	}
	w.AvailableBalance = money.Add(w.AvailableBalance, amount)
	return nil
}

// LockForWithdrawal moves amount from available to locked.
func LockForWithdrawal(w *models.FundWallet, amount float64) error {
	if errAmount := checkAmount(amount); errAmount != nil {
		return errAmount
	}
	if errBalance := checkAvailable(w, amount); errBalance != nil {
		return errBalance
	}
	w.AvailableBalance = money.Sub(w.AvailableBalance, amount)
	w.LockedBalance = money.Add(w.LockedBalance, amount)
	return nil
}

// ReleaseLock returns a held amount to available. Locked never drops below zero.
func ReleaseLock(w *models.FundWallet, amount float64) error {
	if errAmount := checkAmount(amount); errAmount != nil {
		return errAmount
	}
	w.LockedBalance = money.SubFloor(w.LockedBalance, amount)
	w.AvailableBalance = money.Add(w.AvailableBalance, amount)
	return nil
}

// SettleLock consumes a held amount. Locked never drops below zero.
func SettleLock(w *models.FundWallet, amount float64) error {
	if errAmount := checkAmount(amount); errAmount != nil {
		return errAmount
	}
	w.LockedBalance = money.SubFloor(w.LockedBalance, amount)
	return nil
}

// DebitForPayout pays amount out of available and counts it as withdrawn.
func DebitForPayout(w *models.FundWallet, amount float64) error {
	if errAmount := checkAmount(amount); errAmount != nil {
		return errAmount
	}
	if errBalance := checkAvailable(w, amount); errBalance != nil {
		return errBalance
	}
	w.AvailableBalance = money.Sub(w.AvailableBalance, amount)
	w.TotalWithdrawn = money.Add(w.TotalWithdrawn, amount)
	return nil
}
