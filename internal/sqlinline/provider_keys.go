package sqlinline

const QEnsureProviderKeysSchema = `--sql 2d7c5e18-93b4-4f0a-b6e1-58a0c3f9d2e7
create table if not exists provider_keys (
    provider text primary key,
    api_key text not null,
    properties jsonb not null default '{}'::jsonb,
    updated_at timestamptz not null default now()
);
`

const QSelectProviderKey = `--sql e41a9b07-6c2d-4d85-9f3e-1b7a0c5d8e26
select api_key
from provider_keys
where provider = $1::text;
`

// QUpsertProviderKey replaces the stored key of a provider.
const QUpsertProviderKey = `--sql 7b0f3d92-c5e8-4a16-8d4b-e9a21f6c0753
insert into provider_keys (provider, api_key, properties, updated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    properties = excluded.properties,
    updated_at = now();
`
