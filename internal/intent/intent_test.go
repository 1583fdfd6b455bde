package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		utterance string
		want      Action
	}{
		{"Show my emails", ListEmails},
		{"CHECK inbox", ListEmails},
		{"read", ListEmails},
		{"please reply to bob", ReplyHint},
		{"Write something", ReplyHint},
		{"delete that one", DeleteHint},
		{"asdf", Unknown},
		{"", Unknown},
		// "bread" contains "read"; substring matching is intentional.
		{"I want bread", ListEmails},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.utterance))
		})
	}
}

func TestClassifyListTakesPriority(t *testing.T) {
	for _, u := range []string{
		"reply to this email",
		"delete the email",
		"write and check",
		"Delete after you READ it",
	} {
		assert.Equal(t, ListEmails, Classify(u), u)
	}
}

func TestClassifyReplyBeatsDelete(t *testing.T) {
	assert.Equal(t, ReplyHint, Classify("delete or reply?"))
}

func TestHintText(t *testing.T) {
	text, ok := HintText(Unknown)
	assert.True(t, ok)
	assert.Equal(t, "I didn't quite catch that. Try saying 'Show my emails'.", text)

	text, ok = HintText(ReplyHint)
	assert.True(t, ok)
	assert.Equal(t, ReplyHintText, text)

	text, ok = HintText(DeleteHint)
	assert.True(t, ok)
	assert.Equal(t, DeleteHintText, text)

	_, ok = HintText(ListEmails)
	assert.False(t, ok)
}
