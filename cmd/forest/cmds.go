package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-go-golems/forest/pkg/forest"
	"github.com/go-go-golems/forest/pkg/forest/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func openStore() (*store.FileStore, string, error) {
	dir := viper.GetString("data-dir")
	fs, err := store.Open(dir)
	if err != nil {
		return nil, "", err
	}
	return fs, dir, nil
}

func newNewCommand() *cobra.Command {
	var model string
	var systemPrompt string
	var profile string
	var maxTokens int
	var temperature float64

	cmd := &cobra.Command{
		Use:   "new",
		Short: "start a new conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := forest.RootConfig{
				Model:        model,
				SystemPrompt: systemPrompt,
			}
			if profile != "" {
				var err error
				cfg, err = loadProfile(profile)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("max-tokens") {
				cfg.Parameters.MaxTokens = &maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				cfg.Parameters.Temperature = &temperature
			}

			fs, _, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = fs.Close()
			}()

			root, err := forest.New(fs).CreateRoot(cfg)
			if err != nil {
				return err
			}

			fmt.Println(root.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model to converse with")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "system prompt for the conversation")
	cmd.Flags().StringVar(&profile, "profile", "", "YAML profile file with the root configuration")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max tokens parameter")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "temperature parameter")

	return cmd
}

func newSayCommand() *cobra.Command {
	var parent string
	var rootID string
	var role string
	var tags []string

	cmd := &cobra.Command{
		Use:   "say [text]",
		Short: "append a message to the conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dir, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = fs.Close()
			}()

			parentID := forest.NullNode
			switch {
			case parent != "":
				parentID, err = forest.ParseNodeID(parent)
				if err != nil {
					return err
				}
			case rootID == "":
				// no explicit position, resume from the session head
				if head, ok := readHead(dir); ok {
					parentID = head
				}
			}

			options := []forest.NodeOption{}
			if len(tags) > 0 {
				options = append(options, forest.WithTags(tags...))
			}
			if parentID.IsNull() {
				if rootID == "" {
					return fmt.Errorf("no parent to attach to: pass --parent or --root")
				}
				rid, err := forest.ParseRootID(rootID)
				if err != nil {
					return err
				}
				options = append(options, forest.WithRootID(rid))
			}

			msg := forest.NewMessage(forest.Role(role), args[0])
			node, err := forest.New(fs).CreateMessageNode(parentID, msg, options...)
			if err != nil {
				return err
			}

			if err := writeHead(dir, node.ID); err != nil {
				return err
			}

			fmt.Println(node.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent node id (defaults to the session head)")
	cmd.Flags().StringVar(&rootID, "root", "", "root id, for the first message of a conversation")
	cmd.Flags().StringVar(&role, "role", string(forest.RoleUser), "message role (user, assistant)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "initial tags for the new node")

	return cmd
}

func newPathCommand() *cobra.Command {
	var to string
	var from string

	cmd := &cobra.Command{
		Use:   "path",
		Short: "print the message history leading to a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dir, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = fs.Close()
			}()

			query := forest.PathQuery{}
			if to != "" {
				query.To, err = forest.ParseNodeID(to)
				if err != nil {
					return err
				}
			} else if head, ok := readHead(dir); ok {
				query.To = head
			} else {
				return fmt.Errorf("no --to node and no session head")
			}
			if from != "" {
				query.From, err = forest.ParseNodeID(from)
				if err != nil {
					return err
				}
			}

			path, err := forest.New(fs).GetPath(query)
			if err != nil {
				return err
			}

			fmt.Printf("# %s (%s)\n", path.Root.Config.Model, path.Root.ID)
			if path.Root.Config.SystemPrompt != "" {
				fmt.Printf("[system]: %s\n", path.Root.Config.SystemPrompt)
			}
			for _, node := range path.Nodes {
				fmt.Println(node.Message.View())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "node to reconstruct history for (defaults to the session head)")
	cmd.Flags().StringVar(&from, "from", "", "ancestor to start after (excluded from the output)")

	return cmd
}

func newChildrenCommand() *cobra.Command {
	var unreadFirst bool

	cmd := &cobra.Command{
		Use:   "children [node-id]",
		Short: "list the children of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := forest.ParseNodeID(args[0])
			if err != nil {
				return err
			}

			fs, _, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = fs.Close()
			}()

			children, err := forest.New(fs).GetChildren(id)
			if err != nil {
				return err
			}
			if unreadFirst {
				children = forest.PartitionByTag(children, forest.TagUnread)
			}

			for _, child := range children {
				excerpt := child.Message.Content
				if len(excerpt) > 60 {
					excerpt = excerpt[:60] + "..."
				}
				line := fmt.Sprintf("%s [%s] %s", child.ID, child.Message.Role, excerpt)
				if len(child.Metadata.Tags) > 0 {
					line += fmt.Sprintf(" (%s)", strings.Join(child.Metadata.Tags, ", "))
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadFirst, "unread-first", false, "list unread children before read ones")

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [node-id]",
		Short: "dump one node record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := forest.ParseNodeID(args[0])
			if err != nil {
				return err
			}

			fs, _, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = fs.Close()
			}()

			node, ok, err := forest.New(fs).GetNode(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("node %s not found", id)
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(node)
		},
	}
}

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read [node-id]",
		Short: "navigate to a node, clearing its unread tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := forest.ParseNodeID(args[0])
			if err != nil {
				return err
			}

			fs, dir, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = fs.Close()
			}()

			f := forest.New(fs)
			node, ok, err := f.GetNode(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("node %s not found", id)
			}

			if node.Metadata.HasTag(forest.TagUnread) {
				node, err = f.UpdateNodeMetadata(id, node.Metadata.WithoutTag(forest.TagUnread))
				if err != nil {
					return err
				}
			}

			if err := writeHead(dir, node.ID); err != nil {
				return err
			}

			fmt.Println(node.Message.View())
			return nil
		},
	}
}
