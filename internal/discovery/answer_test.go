package discovery

import "testing"

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name         string
		packet       string
		wantLocation string
		wantErr      bool
	}{
		{
			name: "well-formed response",
			packet: "HTTP/1.1 200 OK\r\n" +
				"CACHE-CONTROL: max-age=100\r\n" +
				"EXT:\r\n" +
				"LOCATION: http://192.168.1.10:80/description.xml\r\n" +
				"SERVER: Hue/1.0 UPnP/1.0 IpBridge/1.50.0\r\n" +
				"ST: upnp:rootdevice\r\n" +
				"\r\n",
			wantLocation: "http://192.168.1.10:80/description.xml",
		},
		{
			name: "location without carriage returns",
			packet: "HTTP/1.1 200 OK\n" +
				"LOCATION: http://192.168.1.11:80/description.xml\n",
			wantLocation: "http://192.168.1.11:80/description.xml",
		},
		{
			name: "missing LOCATION header",
			packet: "HTTP/1.1 200 OK\r\n" +
				"SERVER: something\r\n" +
				"\r\n",
			wantErr: true,
		},
		{
			name:    "not a 200 status line",
			packet:  "HTTP/1.1 404 Not Found\r\nLOCATION: http://x/\r\n",
			wantErr: true,
		},
		{
			name:    "NOTIFY instead of response",
			packet:  "NOTIFY * HTTP/1.1\r\nLOCATION: http://x/\r\n",
			wantErr: true,
		},
		{
			name:    "empty packet",
			packet:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location, err := parseAnswer([]byte(tt.packet))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAnswer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if location != tt.wantLocation {
				t.Errorf("parseAnswer() = %q, want %q", location, tt.wantLocation)
			}
		})
	}
}
