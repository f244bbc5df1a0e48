package mcpserver

// RecordFormat describes how daily records are stored and how the tools report them.
const RecordFormat = `# Wristlog Daily Record Format

Each metric keeps one binary record per calendar day. Records live under a
partition directory named after the metric and are named by the unpadded date:

    hr/2026-3-14    heart rate
    rs/2026-3-14    recorded steps

## Layout

All integers are little-endian.

| Offset | Size | Field                                   |
|--------|------|-----------------------------------------|
| 0      | 4    | record tag: ` + "`HRDB`" + ` or ` + "`RSDB`" + `               |
| 4      | 4    | entry count (u32)                       |
| 8      | n    | entries, each prefixed by its entry tag |

Heart-rate entry (` + "`HRDE`" + `, 6 bytes): hour, minute, heart_rate, max, min, avg.
Instantaneous readings have max, min and avg set to 255. Rollup entries carry
max, min and avg and have heart_rate 255. A reading with every field 255 is a
slot the watch marked invalid.

Step entry (` + "`RSDE`" + `, 5 bytes): hour, minute, kind (0 walk, 1 run), count (u16).

## Rules

1. At most one entry exists per time of day (per kind for steps). A newer
   sample for the same time replaces the older one.
2. Entries are stored in arrival order; the tools return them sorted by time.
3. A record whose length does not match its entry count is corrupt. Corrupt
   records are reported and never overwritten.
4. Dates passed to tools use ` + "`YYYY-MM-DD`" + `. A day without a record is
   returned as an empty day, not an error.

## Alerts

` + "`send_alert`" + ` shows a notification on the watch. The type is one of call, qq,
wechat, message, facebook, twitter, whatsapp, skype, messenger, hangouts, line,
linkedin, instagram, viber, kakaotalk, vk, snapchat, googleplus, email, flickr,
tumblr, pinterest, youtube. Text longer than the watch can display is cut.
`
