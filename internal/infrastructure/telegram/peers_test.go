package telegram

import (
	"testing"

	"github.com/gotd/td/tg"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		in        string
		wantKind  identifierKind
		wantValue string
	}{
		{"https://t.me/some_group", identifierUsername, "some_group"},
		{"http://t.me/some_group", identifierUsername, "some_group"},
		{"t.me/some_group", identifierUsername, "some_group"},
		{"@some_group", identifierUsername, "some_group"},
		{"some_group", identifierUsername, "some_group"},
		{"  some_group  ", identifierUsername, "some_group"},
		{"https://t.me/joinchat/AbCdEf123", identifierInvite, "AbCdEf123"},
		{"t.me/joinchat/AbCdEf123", identifierInvite, "AbCdEf123"},
		{"https://t.me/+AbCdEf123", identifierInvite, "AbCdEf123"},
		{"+AbCdEf123", identifierInvite, "AbCdEf123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, value := parseIdentifier(tt.in)
			if kind != tt.wantKind || value != tt.wantValue {
				t.Errorf("parseIdentifier(%q) = (%v, %q), want (%v, %q)",
					tt.in, kind, value, tt.wantKind, tt.wantValue)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *tg.User
		want string
	}{
		{"username wins", &tg.User{Username: "alice", FirstName: "Alice", LastName: "A"}, "alice"},
		{"full name", &tg.User{FirstName: "Alice", LastName: "Anders"}, "Alice Anders"},
		{"first name only", &tg.User{FirstName: "Alice"}, "Alice"},
		{"empty", &tg.User{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayName(tt.user); got != tt.want {
				t.Errorf("displayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyMedia(t *testing.T) {
	videoDoc := &tg.MessageMediaDocument{}
	videoDoc.Document = &tg.Document{Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}}}

	audioDoc := &tg.MessageMediaDocument{}
	audioDoc.Document = &tg.Document{Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeAudio{}}}

	plainDoc := &tg.MessageMediaDocument{}
	plainDoc.Document = &tg.Document{Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeFilename{FileName: "a.pdf"}}}

	tests := []struct {
		name  string
		media tg.MessageMediaClass
		want  domain.MediaType
	}{
		{"no media", nil, domain.MediaTypeText},
		{"photo", &tg.MessageMediaPhoto{}, domain.MediaTypePhoto},
		{"video document", videoDoc, domain.MediaTypeVideo},
		{"audio document", audioDoc, domain.MediaTypeAudio},
		{"plain document", plainDoc, domain.MediaTypeDocument},
		{"geo", &tg.MessageMediaGeo{}, domain.MediaTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyMedia(tt.media); got != tt.want {
				t.Errorf("classifyMedia() = %q, want %q", got, tt.want)
			}
		})
	}
}
