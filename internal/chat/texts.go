package chat

// Assistant texts shown in the transcript.
const (
	Greeting = "Hello! I can check your emails, summarize them, or help you write replies. " +
		"What would you like to do?"

	FetchingStatus = "Fetching your recent emails..."
	SendingStatus  = "Sending email..."
	DeletingStatus = "Deleting email..."

	EmailListFormat = "Here are your last %d emails:"
	DraftReady      = "Here is a draft reply:"
	ReplySent       = "Reply sent successfully!"
	EmailDeleted    = "Email deleted (moved to trash)."

	FetchFailed    = "Failed to fetch emails. Please try again."
	DraftFailed    = "Failed to generate reply."
	SendFailed     = "Failed to send email."
	DeleteFailed   = "Failed to delete email."
	DeleteQuestion = "Are you sure you want to delete this email? This matches the 'trash' action."

	// NoSummary stands in on an email card whose summary is empty.
	NoSummary = "No summary available"

	// DefaultInstructions is the tone passed to the drafting engine.
	DefaultInstructions = "positive professional"
)

// draftingStatus is the placeholder shown while a reply is generated.
func draftingStatus(subject string) string {
	return `Drafting a reply to "` + subject + `"...`
}
