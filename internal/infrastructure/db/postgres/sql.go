package postgres

// Schema the repos assume (managed by migrations outside this service):
//
//   CREATE TABLE cart_items (
//     user_id            TEXT NOT NULL,
//     artwork_id         TEXT NOT NULL,
//     kind               TEXT NOT NULL,          -- 'cart' | 'wishlist'
//     status             TEXT NOT NULL,          -- 'active' | 'inactive'
//     notification_count INT  NOT NULL DEFAULT 0,
//     last_notified_at   TIMESTAMPTZ,
//     created_at         TIMESTAMPTZ NOT NULL,
//     updated_at         TIMESTAMPTZ NOT NULL,
//     PRIMARY KEY (user_id, artwork_id, kind)
//   );
//
//   CREATE TABLE notification_locks (
//     key        TEXT PRIMARY KEY,
//     expires_at TIMESTAMPTZ NOT NULL
//   );
//
//   CREATE TABLE push_subscriptions (
//     user_id   TEXT NOT NULL,
//     endpoint  TEXT NOT NULL,
//     auth      TEXT NOT NULL,
//     p256dh    TEXT NOT NULL,
//     last_seen TIMESTAMPTZ NOT NULL,
//     PRIMARY KEY (user_id, endpoint)
//   );
//
//   CREATE TABLE artworks (
//     id        TEXT PRIMARY KEY,
//     title     TEXT NOT NULL,
//     image_url TEXT NOT NULL DEFAULT '',
//     page_url  TEXT NOT NULL DEFAULT ''
//   );
//
//   CREATE TABLE engagement_archive (
//     device_id        TEXT NOT NULL,
//     artwork_id       TEXT NOT NULL,
//     user_id          TEXT NOT NULL DEFAULT '',
//     ip_address       TEXT NOT NULL DEFAULT '',
//     user_agent       TEXT NOT NULL DEFAULT '',
//     referrer         TEXT NOT NULL DEFAULT '',
//     session_id       TEXT NOT NULL DEFAULT '',
//     view_start_time  TIMESTAMPTZ NOT NULL,
//     view_duration    INT NOT NULL,
//     last_interaction TIMESTAMPTZ,
//     created_at       TIMESTAMPTZ NOT NULL,
//     PRIMARY KEY (device_id, artwork_id, view_start_time)
//   );

const upsertActiveItemSQL = `
INSERT INTO cart_items (user_id, artwork_id, kind, status, notification_count, last_notified_at, created_at, updated_at)
VALUES ($1, $2, $3, 'active', 0, NULL, $4, $4)
ON CONFLICT (user_id, artwork_id, kind) DO UPDATE SET
  status = 'active',
  notification_count = CASE WHEN cart_items.status = 'inactive' THEN 0 ELSE cart_items.notification_count END,
  last_notified_at   = CASE WHEN cart_items.status = 'inactive' THEN NULL ELSE cart_items.last_notified_at END,
  updated_at = $4
`

const listActiveIDsSQL = `
SELECT artwork_id FROM cart_items
WHERE user_id = $1 AND kind = $2 AND status = 'active'
`

const listEligibleSQL = `
SELECT user_id, artwork_id, kind, status, notification_count, last_notified_at, created_at, updated_at
FROM cart_items
WHERE kind = $1
  AND status = 'active'
  AND notification_count < $2
  AND (last_notified_at IS NULL OR last_notified_at <= $3)
ORDER BY updated_at ASC
LIMIT $4
`

const markNotifiedSQL = `
UPDATE cart_items
SET notification_count = notification_count + 1,
    last_notified_at = $4,
    updated_at = $4
WHERE user_id = $1 AND artwork_id = $2 AND kind = $3
  AND notification_count < $5
`

const acquireLockSQL = `
INSERT INTO notification_locks (key, expires_at)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET expires_at = EXCLUDED.expires_at
WHERE notification_locks.expires_at <= $3
`

const releaseLockSQL = `
DELETE FROM notification_locks WHERE key = $1
`

const latestSubscriptionSQL = `
SELECT user_id, endpoint, auth, p256dh, last_seen
FROM push_subscriptions
WHERE user_id = $1
ORDER BY last_seen DESC
LIMIT 1
`

const getArtworkSummarySQL = `
SELECT id, title, image_url, page_url FROM artworks WHERE id = $1
`

const insertArchiveSQL = `
INSERT INTO engagement_archive (
  device_id, artwork_id, user_id, ip_address, user_agent, referrer, session_id,
  view_start_time, view_duration, last_interaction, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (device_id, artwork_id, view_start_time) DO NOTHING
`
