package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/binzume/fbxscene/converter"
	"github.com/binzume/fbxscene/fbx"
	"github.com/binzume/fbxscene/loader"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[:len(input)-len(ext)] + ".glb"
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := LoadConfig(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	input := f.args[0]
	if f.dump {
		err = dump(os.Stdout, input, cfg, f.full)
	} else {
		output := defaultOutputFile(input)
		if len(f.args) > 1 {
			output = f.args[1]
		}
		err = run(ctx, logger, cfg, input, output, f.watch)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("failed", zap.Error(err))
	}
}

func resolveOptions(cfg *Config) ([]fbx.Option, error) {
	enc, err := cfg.NameEncoding()
	if err != nil {
		return nil, fmt.Errorf("name encoding %q: %w", cfg.Names.Encoding, err)
	}
	if enc == nil {
		return nil, nil
	}
	return []fbx.Option{fbx.WithNameEncoding(enc)}, nil
}

func convert(ctx context.Context, l *loader.Loader, cfg *Config, input, output string) error {
	s, err := l.Load(ctx, input)
	if err != nil {
		return err
	}
	texDir := cfg.Texture.Dir
	if texDir == "" {
		texDir = filepath.Dir(input)
	}
	conv := converter.NewFBXToGLTFConverter(&converter.FBXToGLTFOption{
		Scale:                  cfg.Scale,
		ForceUnlit:             cfg.ForceUnlit,
		TextureReCompress:      cfg.Texture.ReCompress,
		TextureResolutionLimit: cfg.Texture.ResolutionLimit,
		TextureScale:           cfg.Texture.Scale,
		Logger:                 l.Logger(),
	})
	doc, err := conv.Convert(s, texDir)
	if err != nil {
		return err
	}
	if err := converter.SaveGLB(doc, output); err != nil {
		return err
	}
	l.Logger().Info("saved", zap.String("output", output), zap.Int("meshes", len(doc.Meshes)), zap.Int("skins", len(doc.Skins)))
	return nil
}

func run(ctx context.Context, logger *zap.Logger, cfg *Config, input, output string, watch bool) error {
	opts, err := resolveOptions(cfg)
	if err != nil {
		return err
	}
	l := loader.New(loader.WithLogger(logger), loader.WithResolveOptions(opts...))
	if err := convert(ctx, l, cfg, input, output); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := l.Watch()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(input); err != nil {
		return err
	}
	changed := make(chan string, 1)
	w.OnEvict = func(key string) {
		select {
		case changed <- key:
		default:
		}
	}
	logger.Info("watching", zap.String("input", input))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-changed:
				if err := convert(ctx, l, cfg, input, output); err != nil {
					logger.Warn("reconvert failed", zap.Error(err))
				}
			}
		}
	})
	return g.Wait()
}

// dump prints the raw node tree followed by a summary of the resolved graph.
func dump(w io.Writer, input string, cfg *Config, full bool) error {
	r, err := os.Open(input)
	if err != nil {
		return err
	}
	defer r.Close()
	nodes, err := fbx.Parse(r)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		n.Dump(w, 0, full)
	}

	opts, err := resolveOptions(cfg)
	if err != nil {
		return err
	}
	s := fbx.Resolve(nodes, opts...)
	fmt.Fprintln(w, strings.Repeat("-", 40))
	summarize(w, s)
	return nil
}

func summarize(w io.Writer, s *fbx.Scene) {
	counts := map[string]int{}
	for _, o := range s.Objects.All {
		key := o.Type
		if o.Subtype != "" {
			key += "/" + o.Subtype
		}
		counts[key]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-32s %d\n", k, counts[k])
	}
	fmt.Fprintf(w, "connections: %d linked, %d dropped\n", s.Stats.Linked, s.Stats.Dropped)

	for i, d := range s.Documents {
		roots, err := s.Roots(i)
		if err != nil {
			fmt.Fprintf(w, "document %q: %v\n", d.Name, err)
			continue
		}
		fmt.Fprintf(w, "document %q: %d roots\n", d.Name, len(roots))
		for _, o := range roots {
			printTree(w, o, 1, map[*fbx.Object]bool{})
		}
	}
	for _, o := range s.Objects.Models {
		if o.Subtype == "LimbNode" {
			s.Skeleton(o)
		}
	}
	for _, sk := range s.Skeletons() {
		fmt.Fprintf(w, "skeleton %q: %d bones\n", sk.Root().Name, len(sk.Bones))
	}
}

func printTree(w io.Writer, o *fbx.Object, depth int, seen map[*fbx.Object]bool) {
	if seen[o] {
		return
	}
	seen[o] = true
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), o)
	for _, c := range o.Children() {
		printTree(w, c, depth+1, seen)
	}
}
