// Package p4 talks to the version control server by running its command line
// client with tagged output (`p4 -ztag`). Every call is a blocking round
// trip, except StreamDiff whose results are read as the server produces
// them.
package p4

//go:generate mockery -name Client
//go:generate mockery -name DiffStream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// StatusDiffers is the diff status of a file whose contents don't match the
// have revision.
const StatusDiffers = "diff"

// ServerInfo is the subset of `p4 info` used by this tool.
type ServerInfo struct {
	ClientName    string
	ClientRoot    string
	ServerVersion string
	Unicode       bool
}

// ClientSpec is the subset of the client workspace spec used for path
// translation.
type ClientSpec struct {
	Name string
	Root string
	View []string
}

// DiffRecord is one result of a content diff.
type DiffRecord struct {
	ServerPath string
	Status     string
}

// DiffStream is a single-pass sequence of diff records. It's used like
// bufio.Scanner: call Next until it returns false, then check Err.
type DiffStream interface {
	Next() bool
	Record() DiffRecord
	Err() error
	Close() error
}

// Client is the interface to the version control server.
type Client interface {
	Connect(ctx context.Context) (ServerInfo, error)
	FetchClientSpec(ctx context.Context) (ClientSpec, error)
	FetchOpenedFiles(ctx context.Context, clientName string) ([]string, error)
	FetchHaveFiles(ctx context.Context) ([]string, error)
	ForceSync(ctx context.Context, fileAtRevision string) error
	Revert(ctx context.Context, file string) error
	StreamDiff(ctx context.Context, scope string) (DiffStream, error)
	ConfigFileName(ctx context.Context) (string, error)
	Close() error
}

// Options configures the command line client.
type Options struct {
	// Path is the p4 binary. It's looked up in $PATH if it's not absolute.
	Path string

	// Dir is the directory commands are run in. Relative file arguments
	// such as `...` are relative to it.
	Dir string

	// Charset overrides the encoding used to decode output from servers
	// that aren't in unicode mode.
	Charset string
}

// Mocked out for unit testing.
var execCommand = exec.CommandContext

type client struct {
	opts    Options
	decoder *encoding.Decoder
}

// New returns a Client that runs the p4 command line client.
func New(opts Options) Client {
	if opts.Path == "" {
		opts.Path = "p4"
	}
	return &client{opts: opts}
}

func (c *client) Connect(ctx context.Context) (ServerInfo, error) {
	records, err := c.run(ctx, nil, "info")
	if err != nil {
		return ServerInfo{}, err
	}
	if len(records) == 0 {
		return ServerInfo{}, errors.New("p4 info returned no output")
	}

	rec := records[0]
	info := ServerInfo{
		ClientName:    rec["clientName"],
		ClientRoot:    rec["clientRoot"],
		ServerVersion: rec["serverVersion"],
		Unicode:       rec["unicode"] == "enabled",
	}

	c.decoder, err = NewDecoder(info.Unicode, c.opts.Charset)
	if err != nil {
		return ServerInfo{}, errors.WithContext(err, "select charset")
	}
	if c.decoder != nil {
		info.ClientRoot = c.decodeString(info.ClientRoot)
	}

	if info.ClientName == "" || info.ClientName == "*unknown*" {
		return ServerInfo{}, errors.NewConfigurationError(
			"no client workspace is set for %s; set P4CLIENT or create a P4CONFIG file",
			c.opts.Dir)
	}
	return info, nil
}

func (c *client) FetchClientSpec(ctx context.Context) (ClientSpec, error) {
	records, err := c.run(ctx, nil, "client", "-o")
	if err != nil {
		return ClientSpec{}, err
	}
	if len(records) == 0 {
		return ClientSpec{}, errors.New("p4 client -o returned no output")
	}

	rec := records[0]
	spec := ClientSpec{Name: rec["Client"], Root: rec["Root"]}
	for i := 0; ; i++ {
		line, ok := rec[fmt.Sprintf("View%d", i)]
		if !ok {
			break
		}
		spec.View = append(spec.View, line)
	}
	return spec, nil
}

func (c *client) FetchOpenedFiles(ctx context.Context, clientName string) ([]string, error) {
	records, err := c.run(ctx, []string{"not opened"}, "opened", "-C", clientName, "...")
	if err != nil {
		return nil, err
	}
	return depotFiles(records), nil
}

// FetchHaveFiles returns the files synced to the workspace, excluding files
// whose head revision is a delete or move/delete.
func (c *client) FetchHaveFiles(ctx context.Context) ([]string, error) {
	records, err := c.run(ctx, []string{"no such file(s)", "not in client view",
		"not on client"}, "files", "-e", "...#have")
	if err != nil {
		return nil, err
	}
	return depotFiles(records), nil
}

func (c *client) ForceSync(ctx context.Context, fileAtRevision string) error {
	_, err := c.run(ctx, nil, "sync", "-f", fileAtRevision)
	return err
}

func (c *client) Revert(ctx context.Context, file string) error {
	_, err := c.run(ctx, nil, "revert", file)
	return err
}

func (c *client) StreamDiff(ctx context.Context, scope string) (DiffStream, error) {
	s, err := c.start(ctx, []string{"no such file(s)", "not on client"},
		"diff", "-sl", scope)
	if err != nil {
		return nil, err
	}
	return &diffStream{stream: s}, nil
}

// ConfigFileName returns the name of the P4CONFIG file, or an empty string
// if none is configured.
func (c *client) ConfigFileName(ctx context.Context) (string, error) {
	cmd := execCommand(ctx, c.opts.Path, "-d", c.opts.Dir, "set", "-q", "P4CONFIG")
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.ErrInterrupted
		}
		return "", errors.WithContext(err, "p4 set")
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "P4CONFIG=") {
			continue
		}
		name := strings.TrimPrefix(line, "P4CONFIG=")
		if i := strings.Index(name, " ("); i >= 0 {
			name = name[:i]
		}
		return name, nil
	}
	return "", nil
}

// Close releases the connection. Each command is its own process, so there's
// nothing to tear down.
func (c *client) Close() error {
	log.Debug("Disconnected from server")
	return nil
}

func depotFiles(records []Record) (files []string) {
	for _, rec := range records {
		if f, ok := rec["depotFile"]; ok {
			files = append(files, f)
		}
	}
	return files
}

func (c *client) decodeString(s string) string {
	decoded, err := c.decoder.String(s)
	if err != nil {
		log.WithError(err).WithField("value", s).Debug("Failed to decode server output")
		return s
	}
	return decoded
}

// run runs a command to completion and returns all of its records.
func (c *client) run(ctx context.Context, tolerated []string, args ...string) ([]Record, error) {
	s, err := c.start(ctx, tolerated, args...)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		rec, ok := s.next()
		if !ok {
			break
		}
		records = append(records, rec)
	}
	return records, s.close()
}

// start starts a command and returns a stream over its records.
// Lines on stderr that contain one of `tolerated` are logged rather than
// treated as errors.
func (c *client) start(ctx context.Context, tolerated []string, args ...string) (*stream, error) {
	fullArgs := append([]string{"-ztag", "-d", c.opts.Dir}, args...)
	log.WithField("args", fullArgs).Debug("Running p4")

	cmd := execCommand(ctx, c.opts.Path, fullArgs...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.WithContext(err, "open stdout")
	}

	s := &stream{ctx: ctx, cmd: cmd, stdout: stdout, command: args[0],
		tolerated: tolerated, decoder: c.decoder}
	cmd.Stderr = &s.stderr
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.ErrInterrupted
		}
		return nil, errors.WithContext(err, "start p4")
	}

	var out io.Reader = stdout
	if c.decoder != nil {
		out = transform.NewReader(stdout, c.decoder)
	}
	s.records = newRecordScanner(out)
	return s, nil
}

type stream struct {
	ctx     context.Context
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	records *recordScanner
	stderr  bytes.Buffer
	decoder *encoding.Decoder

	command   string
	tolerated []string
	closed    bool
}

func (s *stream) next() (Record, bool) {
	return s.records.Next()
}

// close waits for the command to exit. Output that wasn't read is
// discarded.
func (s *stream) close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	io.Copy(ioutil.Discard, s.stdout)
	waitErr := s.cmd.Wait()
	if s.ctx.Err() != nil {
		return errors.ErrInterrupted
	}

	if err := s.records.Err(); err != nil {
		return errors.WithContext(err, fmt.Sprintf("read p4 %s output", s.command))
	}

	var messages []string
	var tolerated bool
	scanner := bufio.NewScanner(s.stderrReader())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if s.isTolerated(line) {
			log.WithField("command", s.command).Debug(line)
			tolerated = true
			continue
		}
		messages = append(messages, line)
	}

	// p4 exits non-zero for warnings such as "no such file(s)".
	if len(messages) == 0 && waitErr != nil && !tolerated {
		messages = []string{waitErr.Error()}
	}
	if len(messages) != 0 {
		return errors.ProtocolError{Command: s.command, Messages: messages}
	}
	return nil
}

func (s *stream) stderrReader() io.Reader {
	if s.decoder == nil {
		return &s.stderr
	}
	return transform.NewReader(&s.stderr, s.decoder)
}

func (s *stream) isTolerated(line string) bool {
	for _, t := range s.tolerated {
		if strings.Contains(line, t) {
			return true
		}
	}
	return false
}

type diffStream struct {
	stream *stream
	record DiffRecord
	err    error
	done   bool
}

func (d *diffStream) Next() bool {
	if d.done {
		return false
	}

	rec, ok := d.stream.next()
	if !ok {
		d.done = true
		d.err = d.stream.close()
		return false
	}

	d.record = DiffRecord{ServerPath: rec["depotFile"], Status: rec["status"]}
	return true
}

func (d *diffStream) Record() DiffRecord {
	return d.record
}

func (d *diffStream) Err() error {
	return d.err
}

func (d *diffStream) Close() error {
	if d.done {
		return nil
	}
	d.done = true
	return d.stream.close()
}
