package messages

// User-facing message templates. Variables use {name} placeholders and
// are substituted by Render.

const (
	WelcomeMenu = "Welcome to the ticket desk, {name}!\n\n" +
		"1. Buy a ticket\n" +
		"2. Check my payment status\n" +
		"3. My wallet\n" +
		"4. Help\n\n" +
		"Reply with a number, or type 'menu' at any time to start over."

	MainMenu = "Main menu:\n\n" +
		"1. Buy a ticket\n" +
		"2. Check my payment status\n" +
		"3. My wallet\n" +
		"4. Help"

	TicketMenu = "Which ticket would you like?\n\n" +
		"A. General Admission - {ga_price} {currency}\n" +
		"B. VIP - {vip_price} {currency}\n\n" +
		"Reply with A or B."

	TicketMenuVIPSoldOut = "Which ticket would you like?\n\n" +
		"A. General Admission - {ga_price} {currency}\n" +
		"B. VIP - SOLD OUT\n\n" +
		"Reply with A."

	AskEmail = "Great choice! Please send the email address we should use for your receipt."

	AskCouponAnswer = "Do you have a coupon code? (yes/no)"

	AskCouponCode = "Please send your coupon code."

	CouponApplied = "Coupon {coupon} applied! Your price dropped from {original_price} to {discounted_price} {currency}."

	CouponInvalidContinue = "That coupon code is invalid or has expired.\n\n" +
		"Would you like to continue at the full price of {amount} {currency}? (yes/no)"

	PaymentLink = "You're almost there! Pay {amount} {currency} using this secure link:\n\n" +
		"{payment_link}\n\n" +
		"The link expires soon, so please complete payment now."

	FinishPayment = "You have a pending payment. Please finish paying with the link we sent you, " +
		"or type 'menu' to start over."

	PaymentConfirmed = "Payment received! We got your {amount} {currency}. " +
		"Your ticket will be issued shortly. Type 'menu' to return to the main menu."

	StatusReport = "Your payment status:\n\n" +
		"Ticket: {ticket_type}\n" +
		"Paid so far: {amount_paid} {currency}\n" +
		"Outstanding: {remaining_balance} {currency}"

	StatusReportInstallment = "Your payment status:\n\n" +
		"Ticket: {ticket_type}\n" +
		"Paid so far: {amount_paid} {currency}\n" +
		"Outstanding: {remaining_balance} {currency}\n" +
		"Installment {installment_number} of {total_installments}\n" +
		"Next payment due: {due_date}"

	StatusReportEmpty = "You don't have any payments with us yet. Reply 1 to buy a ticket!"

	HelpText = "Reply with a number from the menu to get started. " +
		"Type 'menu' at any time to return here. " +
		"If you paid but didn't get a confirmation, your payment may still be processing - check back shortly."

	WalletBalanceMenu = "Your wallet balance is {wallet_balance} {currency}.\n\n" +
		"What would you like to do with it?\n" +
		"1. Keep it as credit for the next event\n" +
		"2. Transfer it to mobile money\n" +
		"3. Donate it\n\n" +
		"Reply with a number."

	WalletEmpty = "Your wallet is empty. Type 'menu' to return to the main menu."

	WalletTransferDone = "Done! Your wallet balance of {wallet_balance} {currency} has been processed. " +
		"Type 'menu' to return to the main menu."

	DeadlineDowngrade = "Hi {name}, the installment deadline has passed. " +
		"Your payments of {amount_paid} {currency} cover a {ticket_type} ticket, so we've downgraded your order. " +
		"The difference of {wallet_balance} {currency} is now in your wallet - reply to choose what to do with it."

	DeadlineRollover = "Hi {name}, the installment deadline has passed and your payments of " +
		"{amount_paid} {currency} don't fully cover a ticket. " +
		"The full amount is now in your wallet - reply to choose what to do with it."

	ReminderFallback5Day = "Hi {name}, a friendly reminder: {amount} {currency} of your {ticket_type} ticket " +
		"is still outstanding and due in {days_left} days ({due_date}). Pay here: {payment_link}"

	ReminderFallback1Day = "Hi {name}, your balance of {amount} {currency} is due tomorrow ({due_date})! " +
		"Finish paying here to keep your {ticket_type} ticket: {payment_link}"

	TryAgainLater = "Sorry, something went wrong on our side. Please try again in a moment."

	GenericApology = "Sorry, something unexpected happened. Please type 'menu' to start over."
)
