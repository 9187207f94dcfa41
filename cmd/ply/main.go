// Command ply prints and converts property lists.
//
//	ply [options] [file]
//
// With no file, ply reads standard input.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	plist "github.com/zdypro888/go-plist"
)

type options struct {
	Convert string `short:"c" long:"convert" description:"output format" choice:"pretty" choice:"xml" choice:"binary" choice:"json" choice:"yaml" default:"pretty"`
	Output  string `short:"o" long:"out" description:"output file (default: standard output)"`
	Indent  bool   `short:"I" long:"indent" description:"indent XML and JSON output"`
	Verbose bool   `short:"v" long:"verbose" description:"log codec activity to standard error"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options] [file]"
	args, err := parser.Parse()
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer logger.Sync()
		plist.SetLogger(logger)
	}

	if err := run(opts, args); err != nil {
		fmt.Fprintf(os.Stderr, "ply: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, args []string) error {
	var in io.Reader = os.Stdin
	name := "<stdin>"
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in, name = f, args[0]
	}
	data, err := ioutil.ReadAll(in)
	if err != nil {
		return err
	}

	var doc interface{}
	format, err := plist.Unmarshal(data, &doc)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	plist.Logger().Info("read property list", zap.String("file", name), zap.String("format", plist.FormatNames[format]))

	out, err := convert(opts, data, doc)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return ioutil.WriteFile(opts.Output, out, 0644)
}

func convert(opts options, data []byte, doc interface{}) ([]byte, error) {
	indent := ""
	if opts.Indent {
		indent = "\t"
	}
	switch opts.Convert {
	case "xml":
		return plist.MarshalIndent(doc, plist.XMLFormat, indent)
	case "binary":
		return plist.Marshal(doc, plist.BinaryFormat)
	case "json":
		if opts.Indent {
			return json.MarshalIndent(textValue(doc), "", indent)
		}
		return json.Marshal(textValue(doc))
	case "yaml":
		return yaml.Marshal(textValue(doc))
	}
	return []byte(pretty(data, doc) + "\n"), nil
}

// textValue rewrites the values that JSON and YAML cannot hold directly.
func textValue(v interface{}) interface{} {
	switch v := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case plist.UID:
		return map[string]interface{}{"CF$UID": uint64(v)}
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case plist.Set:
		return textValue([]interface{}(v))
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = textValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = textValue(e)
		}
		return out
	}
	return v
}

// pretty renders keyed archives as their object tree and anything else
// as an indented outline.
func pretty(data []byte, doc interface{}) string {
	if dict, ok := doc.(map[string]interface{}); ok && dict["$archiver"] == "NSKeyedArchiver" {
		archiver := &plist.Archiver{}
		if err := archiver.ReadFromData(data); err == nil {
			return archiver.Print()
		}
	}
	buf := &bytes.Buffer{}
	writePretty(buf, doc, 0)
	return strings.TrimSuffix(buf.String(), "\n")
}

func writePretty(buf *bytes.Buffer, v interface{}, depth int) {
	pad := strings.Repeat("  ", depth)
	switch v := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("{\n")
		for _, k := range keys {
			fmt.Fprintf(buf, "%s  %q => ", pad, k)
			writePretty(buf, v[k], depth+1)
		}
		buf.WriteString(pad + "}\n")
	case plist.Set:
		buf.WriteString("set ")
		writePretty(buf, []interface{}(v), depth)
	case []interface{}:
		buf.WriteString("[\n")
		for i, e := range v {
			fmt.Fprintf(buf, "%s  %d => ", pad, i)
			writePretty(buf, e, depth+1)
		}
		buf.WriteString(pad + "]\n")
	case []byte:
		fmt.Fprintf(buf, "<%x>\n", v)
	case string:
		fmt.Fprintf(buf, "%q\n", v)
	case plist.UID:
		fmt.Fprintf(buf, "UID(%d)\n", uint64(v))
	case time.Time:
		buf.WriteString(v.Format(time.RFC3339) + "\n")
	case nil:
		buf.WriteString("null\n")
	default:
		fmt.Fprintf(buf, "%v\n", v)
	}
}
