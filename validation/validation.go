// Package validation holds the pure input validators for the chat
// funnel. Validators never touch the store or the network; they accept
// raw text plus minimal context and return a typed value or a
// ValidationError whose message goes back to the user verbatim.
package validation

import (
	"regexp"
	"strings"

	"ticketbot/internal/status"
	"ticketbot/models"
)

// Permissive local@domain.tld shape check. Anything stricter rejects
// too many real addresses typed from a phone keyboard.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Sanitize trims the input and strips angle brackets so echoed text
// cannot smuggle markup.
func Sanitize(input string) string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

// TicketType validates a tier selector. "a" is always General
// Admission; "b" is VIP and only valid while the VIP allotment has
// stock left.
func TicketType(input string, vipAvailable bool) (models.TicketType, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "a":
		return models.TicketGA, nil
	case "b":
		if !vipAvailable {
			return "", status.NewValidationError(
				"Sorry, VIP tickets are sold out. Reply with A for General Admission.")
		}
		return models.TicketVIP, nil
	default:
		if vipAvailable {
			return "", status.NewValidationError("Please choose a ticket: reply with A or B.")
		}
		return "", status.NewValidationError(
			"Please choose a ticket: reply with A (VIP is sold out).")
	}
}

// Email validates and normalizes an email address.
func Email(input string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input))
	if !emailPattern.MatchString(email) {
		return "", status.NewValidationError(
			"That doesn't look like a valid email address. Please try again, e.g. ama@example.com.")
	}
	return email, nil
}

// YesNo validates a yes/no answer.
func YesNo(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	default:
		return false, status.NewValidationError("Please reply with 'yes' or 'no'.")
	}
}

// MenuOption validates a main-menu selection.
func MenuOption(input string) (string, error) {
	opt := strings.TrimSpace(input)
	switch opt {
	case "1", "2", "3", "4":
		return opt, nil
	default:
		return "", status.NewValidationError("Valid options are 1, 2, 3 or 4. Please reply with a number.")
	}
}

// WalletOption validates a wallet-transfer destination.
func WalletOption(input string) (models.WalletDestination, error) {
	switch strings.TrimSpace(input) {
	case "1":
		return models.WalletDestNextEvent, nil
	case "2":
		return models.WalletDestMobileMoney, nil
	case "3":
		return models.WalletDestDonate, nil
	default:
		return "", status.NewValidationError("Valid options are 1, 2 or 3. Please reply with a number.")
	}
}
