package azure

import "testing"

func TestParseCredential(t *testing.T) {
	tests := []struct {
		in      string
		want    Credential
		wantErr bool
	}{
		{"abc123,eastus", Credential{Key: "abc123", Region: "eastus"}, false},
		{" abc123 , japaneast ", Credential{Key: "abc123", Region: "japaneast"}, false},
		{"abc123", Credential{}, true},
		{"abc123,", Credential{}, true},
		{",eastus", Credential{}, true},
		{"abc123,atlantis", Credential{}, true},
	}
	for _, tt := range tests {
		got, err := ParseCredential(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCredential(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseCredential(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseCredentialsSkipsBadEntries(t *testing.T) {
	creds, errs := ParseCredentials([]string{"k1,eastus", "", "broken", "k2,westus2"})
	if len(creds) != 2 {
		t.Fatalf("got %d credentials, want 2", len(creds))
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if creds[0].Region != "eastus" || creds[1].Region != "westus2" {
		t.Errorf("credential order not preserved: %+v", creds)
	}
}

func TestCredentialHash(t *testing.T) {
	a := Credential{Key: "k1", Region: "eastus"}
	b := Credential{Key: "k1", Region: "westus"}
	if a.Hash() == b.Hash() {
		t.Error("distinct credentials share a hash")
	}
	if a.Hash() != a.Hash() {
		t.Error("hash not stable")
	}
	if len(a.Hash()) != 16 {
		t.Errorf("hash length = %d, want 16", len(a.Hash()))
	}
}

func TestValidQuality(t *testing.T) {
	if !ValidQuality(DefaultQuality) {
		t.Error("default quality not in the quality list")
	}
	if ValidQuality("audio-96khz-studio-master") {
		t.Error("accepted an unknown quality")
	}
	if len(QualityList) != 32 {
		t.Errorf("quality list has %d entries, want 32", len(QualityList))
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindEdgeFree, KindPreviewFree, KindSubscription} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("ms-tts-telepathy"); err == nil {
		t.Error("ParseKind accepted an unknown backend")
	}
}
