package mcpserver

// NoteFormat describes how sowilo reads a Markdown note, so LLM consumers
// know which parts of a note end up in titles, tags, links and chunks.
const NoteFormat = `# How sowilo reads notes

Only files ending in ` + "`" + `.md` + "`" + ` are notes. Folders such as ` + "`" + `.obsidian` + "`" + `,
` + "`" + `.git` + "`" + ` and ` + "`" + `.trash` + "`" + ` are skipped.

## Frontmatter

` + "```" + `markdown
---
title: Human-readable title   # else the first "# " heading, else "Untitled"
tags: [tag-one, tag-two]      # list or comma separated string; "tag" also works
aliases: [other name]
created: 2025-01-15           # overrides the file creation time
updated: 2025-01-20T10:00:00  # overrides the file modification time
---
` + "```" + `

The block must start on the first line and close with ` + "`" + `---` + "`" + ` or ` + "`" + `...` + "`" + `.
Invalid YAML makes the whole note unreadable; it is skipped and logged.
Unknown keys are kept as extra metadata.

## Body

- Inline tags look like ` + "`" + `#tag` + "`" + ` or ` + "`" + `#area/sub-tag` + "`" + ` and start with a letter.
  Tags compare case-insensitively.
- Wikilinks look like ` + "`" + `[[target]]` + "`" + ` or ` + "`" + `[[target|alias]]` + "`" + `; the target is kept.
- Tags and title headings inside fenced code blocks are ignored.

## Search

A query matches as one case-insensitive phrase. Title hits weigh 2, body hits 1,
and a tag containing the phrase adds 5.

## Chunks

Each heading starts a section and chunk indexes restart at 0 in every section.
Long sections are cut at sentence ends; consecutive chunks share an overlap
whose length is reported as ` + "`" + `metadata.overlap` + "`" + `.
`
