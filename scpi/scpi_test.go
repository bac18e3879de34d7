package scpi

import (
	"bytes"
	"math"
	"testing"
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

// fakeTransport replays canned responses and records sent commands.
type fakeTransport struct {
	sent      []string
	responses [][]byte
	cur       []byte
	pos       int
	chunk     int // max bytes per ReadData call; 0 = all
}

func (f *fakeTransport) Open() error                    { return nil }
func (f *fakeTransport) ConnectionID() (string, error)  { return "fake/0", nil }
func (f *fakeTransport) Close() error                   { return nil }
func (f *fakeTransport) WriteData(b []byte) (int, error) { return len(b), nil }

func (f *fakeTransport) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	return nil
}

func (f *fakeTransport) SourceRemove(sess *otc.Session) error { return nil }

func (f *fakeTransport) Send(command string) error {
	f.sent = append(f.sent, command)
	return nil
}

func (f *fakeTransport) ReadBegin() error {
	if len(f.responses) == 0 {
		f.cur = nil
	} else {
		f.cur = f.responses[0]
		f.responses = f.responses[1:]
	}
	f.pos = 0
	return nil
}

func (f *fakeTransport) ReadData(buf []byte) (int, error) {
	n := len(f.cur) - f.pos
	if n > len(buf) {
		n = len(buf)
	}
	if f.chunk > 0 && n > f.chunk {
		n = f.chunk
	}
	copy(buf, f.cur[f.pos:f.pos+n])
	f.pos += n
	return n, nil
}

func (f *fakeTransport) ReadComplete() bool {
	return f.pos >= len(f.cur)
}

func fakeDev(responses ...string) (*Dev, *fakeTransport) {
	ft := &fakeTransport{}
	for _, r := range responses {
		ft.responses = append(ft.responses, []byte(r))
	}
	d := NewDev(TransportRawTCP, ft)
	d.ReadTimeout = time.Second
	return d, ft
}

func TestTrimResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello\n", "hello"},
		{"hello\r\n", "hello"},
		{`"quoted"`, "quoted"},
		{`'single'`, "single"},
		{`"with ""inner"" quotes"`, `with "inner" quotes`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := trimResponse(tt.in); got != tt.want {
			t.Errorf("trimResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetString(t *testing.T) {
	d, ft := fakeDev("  RIGOL\n")
	got, err := d.GetString("*IDN?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "RIGOL" {
		t.Errorf("GetString() = %q, want RIGOL", got)
	}
	if len(ft.sent) != 1 || ft.sent[0] != "*IDN?\n" {
		t.Errorf("sent %v, want terminated *IDN?", ft.sent)
	}
}

func TestSendNoTerminatorQuirk(t *testing.T) {
	d, ft := fakeDev()
	d.Quirks = QuirkNoTerminator
	if err := d.Send(":RUN"); err != nil {
		t.Fatal(err)
	}
	if ft.sent[0] != ":RUN" {
		t.Errorf("sent %q, want bare command", ft.sent[0])
	}
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		resp    string
		want    bool
		wantErr bool
	}{
		{"1\n", true, false},
		{"0\n", false, false},
		{"ON\n", true, false},
		{"off\n", false, false},
		{"maybe\n", false, true},
	}
	for _, tt := range tests {
		d, _ := fakeDev(tt.resp)
		got, err := d.GetBool("Q?")
		if (err != nil) != tt.wantErr {
			t.Errorf("GetBool(%q) error = %v, wantErr %v", tt.resp, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("GetBool(%q) = %v, want %v", tt.resp, got, tt.want)
		}
	}
}

func TestGetDouble(t *testing.T) {
	d, _ := fakeDev("1.25e3\n")
	v, err := d.GetDouble("V?")
	if err != nil {
		t.Fatal(err)
	}
	if v != 1250 {
		t.Errorf("GetDouble() = %v, want 1250", v)
	}

	d, _ = fakeDev("INF\n")
	v, err = d.GetDouble("V?")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(v, 1) {
		t.Errorf("GetDouble(INF) = %v, want +Inf", v)
	}
}

func TestGetDoubleInfinityLimit(t *testing.T) {
	d, _ := fakeDev("9.9e37\n")
	d.InfinityLimit = 9e37
	v, err := d.GetDouble("V?")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(v, 1) {
		t.Errorf("value beyond infinity limit = %v, want +Inf", v)
	}
}

func TestGetFloatV(t *testing.T) {
	d, _ := fakeDev("1.0, 2.5 ,3\n")
	v, err := d.GetFloatV("CURV?")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1.0, 2.5, 3}
	if len(v) != len(want) {
		t.Fatalf("len = %d, want %d", len(v), len(want))
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("v[%d] = %v, want %v", i, v[i], want[i])
		}
	}
}

func TestGetHwID(t *testing.T) {
	d, _ := fakeDev("Rigol Technologies,DS1104Z,DS1ZA000000001,00.04.04\n")
	info, err := d.GetHwID()
	if err != nil {
		t.Fatal(err)
	}
	if info.Manufacturer != "Rigol Technologies" ||
		info.Model != "DS1104Z" ||
		info.SerialNumber != "DS1ZA000000001" ||
		info.FirmwareVersion != "00.04.04" {
		t.Errorf("GetHwID() = %+v", info)
	}

	d, _ = fakeDev("incomplete,response\n")
	if _, err := d.GetHwID(); err != otc.ErrData {
		t.Errorf("short *IDN? = %v, want ErrData", err)
	}
}

func TestGetBlock(t *testing.T) {
	// "#14ABCDX": one length digit, four payload bytes, terminator X.
	d, _ := fakeDev("#14ABCDX")
	got, err := d.GetBlock("WAV?")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("ABCD")) {
		t.Errorf("GetBlock() = %q, want ABCD", got)
	}
}

func TestGetBlockSplitReads(t *testing.T) {
	d, ft := fakeDev("#3012helloworld12\n")
	ft.chunk = 3 // force partial headers across reads
	got, err := d.GetBlock("WAV?")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("helloworld12")) {
		t.Errorf("GetBlock() = %q", got)
	}
}

func TestGetBlockBadDigit(t *testing.T) {
	d, _ := fakeDev("#0X")
	if _, err := d.GetBlock("WAV?"); err != otc.ErrData {
		t.Errorf("GetBlock(#0) = %v, want ErrData", err)
	}
}

func TestGetOpcQuirk(t *testing.T) {
	d, ft := fakeDev()
	d.NoOpcCommand = true
	if err := d.GetOpc(); err != nil {
		t.Fatal(err)
	}
	if len(ft.sent) != 0 {
		t.Errorf("OPC sent despite quirk: %v", ft.sent)
	}
}

func TestGetOpc(t *testing.T) {
	d, ft := fakeDev("1\n")
	if err := d.GetOpc(); err != nil {
		t.Fatal(err)
	}
	if len(ft.sent) != 1 || ft.sent[0] != "*OPC?\n" {
		t.Errorf("sent %v", ft.sent)
	}
}

func TestCmd(t *testing.T) {
	cmds := []Command{
		{CmdSelectChannel, ":CHAN%s"},
		{CmdSetTimebase, ":TIM:SCAL %s"},
		{CmdGetTimebase, ":TIM:SCAL?"},
	}
	d, ft := fakeDev("0.001\n")

	if err := d.Cmd(cmds, "1", CmdSetTimebase, "0.001"); err != nil {
		t.Fatal(err)
	}
	if len(ft.sent) != 2 || ft.sent[0] != ":CHAN1\n" || ft.sent[1] != ":TIM:SCAL 0.001\n" {
		t.Errorf("sent %v", ft.sent)
	}

	resp, err := d.CmdResp(cmds, "", CmdGetTimebase)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "0.001" {
		t.Errorf("CmdResp() = %q", resp)
	}

	if err := d.Cmd(cmds, "", CmdGetCoupling); err != otc.ErrNA {
		t.Errorf("missing command = %v, want ErrNA", err)
	}
}

func TestCmdActualChannelName(t *testing.T) {
	cmds := []Command{
		{CmdSelectChannel, ":CHAN%s"},
		{CmdSetTimebase, ":TIM %s"},
	}
	d, ft := fakeDev()
	d.ActualChannelName = "CH2"
	if err := d.Cmd(cmds, "1", CmdSetTimebase, "x"); err != nil {
		t.Fatal(err)
	}
	if ft.sent[0] != ":CHANCH2\n" {
		t.Errorf("channel select = %q, want rewritten name", ft.sent[0])
	}
}

func TestNewTransportResources(t *testing.T) {
	tests := []struct {
		resource string
		layer    TransportLayer
		wantErr  bool
	}{
		{"libgpib/gpib0,12", TransportGPIB, false},
		{"tcp-raw/192.168.1.5:5555", TransportRawTCP, false},
		{"tcp-rigol/192.168.1.5:5555", TransportRigolTCP, false},
		{"usbtmc/1.4", TransportUSBTMC, false},
		{"vxi/192.168.1.5", TransportVXI, false},
		{"/dev/ttyUSB0", TransportSerial, false},
		{"bogus://x", 0, true},
	}
	for _, tt := range tests {
		layer, tr, err := NewTransport(tt.resource, "")
		if (err != nil) != tt.wantErr {
			t.Errorf("NewTransport(%q) error = %v, wantErr %v", tt.resource, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if layer != tt.layer || tr == nil {
			t.Errorf("NewTransport(%q) = %v, want %v", tt.resource, layer, tt.layer)
		}
	}
}
