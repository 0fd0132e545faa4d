package sqlinline

const QEnsureGenerationsSchema = `--sql 3c1f6a0e-5b7d-4a8e-9d2c-7e4b1a6f0c93
create table if not exists generations (
    id uuid primary key,
    strategy text not null,
    model text not null default '',
    state text not null,
    error_kind text not null default '',
    poll_count integer not null default 0,
    size_bytes bigint not null default 0,
    duration_ms bigint not null default 0,
    created_at timestamptz not null default now(),
    finished_at timestamptz not null default now()
);
`

const QEnsureGenerationsIndex = `--sql 6e0b9d38-4f21-4c7a-8e53-d1a2b7c49f06
create index if not exists generations_created_at_idx on generations (created_at desc);
`

const QInsertGeneration = `--sql 5a7e2b94-1c6f-4d38-b0e5-8f3a9c2d1e70
insert into generations (id, strategy, model, state, error_kind, poll_count, size_bytes, duration_ms, created_at, finished_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::int, $7::bigint, $8::bigint, $9::timestamptz, now())
on conflict (id) do update set
    state = excluded.state,
    error_kind = excluded.error_kind,
    poll_count = excluded.poll_count,
    size_bytes = excluded.size_bytes,
    duration_ms = excluded.duration_ms,
    finished_at = now();
`

const QGenerationSummary = `--sql b8d41f06-2e9a-47c3-a6f1-0c5e8d7b3a24
select strategy, state, error_kind, count(*)::int
from generations
where created_at >= $1::timestamptz
group by strategy, state, error_kind
order by strategy, state, error_kind;
`
